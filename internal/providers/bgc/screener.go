// internal/providers/bgc/screener.go
// Package bgc screens subjects against Elasticsearch-backed screening
// lists: criminal records, sanction watchlists and open warrants.
package bgc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/providers"
)

// Indices names the screening-list indices to query.
type Indices struct {
	Criminal  string
	Watchlist string
	Warrant   string
}

// Screener checks a subject against every configured screening index.
type Screener struct {
	client  *elasticsearch.Client
	indices Indices
	logger  logger.Logger
}

// NewScreener builds an Elasticsearch-backed background check provider.
func NewScreener(client *elasticsearch.Client, indices Indices, log logger.Logger) *Screener {
	return &Screener{
		client:  client,
		indices: indices,
		logger:  log.WithFields(map[string]interface{}{"provider": "es_background_check"}),
	}
}

// Check queries each screening index for the subject. Any hit in any
// index reports PENDING for manual review; clean across all indices
// reports APPROVED. Findings list the indices that produced hits.
func (s *Screener) Check(ctx context.Context, taxID, fullName string) (providers.Report, error) {
	sources := []struct {
		name  string
		index string
	}{
		{"criminal_records", s.indices.Criminal},
		{"watchlist", s.indices.Watchlist},
		{"open_warrants", s.indices.Warrant},
	}

	var findings []string
	for _, src := range sources {
		if src.index == "" {
			continue
		}
		hits, err := s.countHits(ctx, src.index, taxID, fullName)
		if err != nil {
			return providers.Report{}, err
		}
		if hits > 0 {
			findings = append(findings, src.name)
		}
	}

	report := providers.Report{Outcome: providers.OutcomeApproved, Reason: "no findings in screening sources"}
	if len(findings) > 0 {
		report = providers.Report{
			Outcome:  providers.OutcomePending,
			Findings: findings,
			Reason:   fmt.Sprintf("hits in %s require manual review", strings.Join(findings, ", ")),
		}
	}

	s.logger.Info("background screening complete", map[string]interface{}{
		"outcome":  string(report.Outcome),
		"findings": len(findings),
	})
	return report, nil
}

func (s *Screener) countHits(ctx context.Context, index, taxID, fullName string) (int, error) {
	body, err := json.Marshal(buildScreeningQuery(taxID, fullName))
	if err != nil {
		return 0, errors.NewProviderError("background_check", fmt.Errorf("marshal query: %w", err))
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, errors.NewProviderError("background_check", fmt.Errorf("search %s: %w", index, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		// A missing screening index means no data loaded for that
		// source, which is not a subject finding.
		if res.StatusCode == 404 {
			s.logger.Warn("screening index missing", map[string]interface{}{"index": index})
			return 0, nil
		}
		return 0, errors.NewProviderError("background_check", fmt.Errorf("search %s: %s", index, res.Status()))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, errors.NewProviderError("background_check", fmt.Errorf("decode %s response: %w", index, err))
	}
	return parsed.Hits.Total.Value, nil
}

// buildScreeningQuery matches either the exact tax id or the subject's
// full name. Tax id matches are exact keyword terms; names fuzz one edit
// to absorb OCR and transliteration noise.
func buildScreeningQuery(taxID, fullName string) map[string]interface{} {
	shouldClauses := []interface{}{}

	if taxID != "" {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"term": map[string]interface{}{"tax_id": taxID},
		})
	}
	if fullName != "" {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"match": map[string]interface{}{
				"full_name": map[string]interface{}{
					"query":     fullName,
					"fuzziness": 1,
					"operator":  "and",
				},
			},
		})
	}

	return map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               shouldClauses,
				"minimum_should_match": 1,
			},
		},
	}
}
