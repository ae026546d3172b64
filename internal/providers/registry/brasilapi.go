// internal/providers/registry/brasilapi.go
// Package registry resolves company tax ids against the BrasilAPI CNPJ
// endpoint, with a Redis read-through cache in front of it.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/httpclient"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/providers"
)

const cacheKeyPrefix = "registry:cnpj:"

// Client looks up company registrations via BrasilAPI.
type Client struct {
	http     *httpclient.Client
	baseURL  string
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewClient builds a registry client. cache may be nil, in which case
// every lookup goes to the upstream API.
func NewClient(http *httpclient.Client, baseURL string, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *Client {
	return &Client{
		http:     http,
		baseURL:  strings.TrimRight(baseURL, "/"),
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"provider": "brasilapi_registry"}),
	}
}

// brasilAPIResponse mirrors the subset of the BrasilAPI CNPJ payload the
// pipeline consumes.
type brasilAPIResponse struct {
	CNPJ                string `json:"cnpj"`
	RazaoSocial         string `json:"razao_social"`
	NomeFantasia        string `json:"nome_fantasia"`
	DescricaoSituacao   string `json:"descricao_situacao_cadastral"`
	DataInicioAtividade string `json:"data_inicio_atividade"`
	CNAEFiscalDescricao string `json:"cnae_fiscal_descricao"`
	SituacaoCadastral   int    `json:"situacao_cadastral"`
}

// situacaoAtiva is the Receita Federal code for an active registration.
const situacaoAtiva = 2

// Lookup resolves a CNPJ to its registered profile. Cached responses are
// served without touching the upstream; cache write failures are logged
// and swallowed.
func (c *Client) Lookup(ctx context.Context, taxID string) (providers.RegistryRecord, error) {
	if record, ok := c.fromCache(ctx, taxID); ok {
		return record, nil
	}

	url := fmt.Sprintf("%s/api/cnpj/v1/%s", c.baseURL, taxID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return providers.RegistryRecord{}, errors.NewRegistryLookupFailedError(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return providers.RegistryRecord{}, errors.NewRegistryLookupFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return providers.RegistryRecord{}, fmt.Errorf("lookup %s: %w", taxID, providers.ErrRegistryNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return providers.RegistryRecord{}, errors.NewRegistryLookupFailedError(
			fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload brasilAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return providers.RegistryRecord{}, errors.NewRegistryLookupFailedError(fmt.Errorf("decode response: %w", err))
	}

	record := providers.RegistryRecord{
		TaxID:              payload.CNPJ,
		LegalName:          payload.RazaoSocial,
		TradeName:          payload.NomeFantasia,
		RegistrationStatus: payload.DescricaoSituacao,
		Active:             payload.SituacaoCadastral == situacaoAtiva,
		OpenedAt:           payload.DataInicioAtividade,
		MainActivity:       payload.CNAEFiscalDescricao,
	}

	c.toCache(ctx, taxID, record)
	return record, nil
}

func (c *Client) fromCache(ctx context.Context, taxID string) (providers.RegistryRecord, bool) {
	if c.cache == nil {
		return providers.RegistryRecord{}, false
	}

	raw, err := c.cache.Get(ctx, cacheKeyPrefix+taxID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("registry cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return providers.RegistryRecord{}, false
	}

	var record providers.RegistryRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return providers.RegistryRecord{}, false
	}

	c.logger.Debug("registry cache hit", map[string]interface{}{"taxId": taxID})
	return record, true
}

func (c *Client) toCache(ctx context.Context, taxID string, record providers.RegistryRecord) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKeyPrefix+taxID, raw, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("registry cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
