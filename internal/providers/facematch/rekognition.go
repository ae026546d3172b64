// internal/providers/facematch/rekognition.go
// Package facematch compares faces with Amazon Rekognition.
package facematch

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/providers"
)

// compareFacesAPI is the slice of the Rekognition client the provider uses.
type compareFacesAPI interface {
	CompareFaces(ctx context.Context, params *rekognition.CompareFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.CompareFacesOutput, error)
}

// Client compares a reference face against a probe image.
type Client struct {
	api       compareFacesAPI
	threshold float64
	logger    logger.Logger
}

// NewClient builds a Rekognition face match client.
func NewClient(ctx context.Context, region string, threshold float64, log logger.Logger) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.NewProviderError("face_match", fmt.Errorf("load aws config: %w", err))
	}
	return newClientWithAPI(rekognition.NewFromConfig(cfg), threshold, log), nil
}

func newClientWithAPI(api compareFacesAPI, threshold float64, log logger.Logger) *Client {
	return &Client{
		api:       api,
		threshold: threshold,
		logger:    log.WithFields(map[string]interface{}{"provider": "aws_rekognition"}),
	}
}

// Compare runs CompareFaces with a zero service-side threshold and applies
// the configured threshold locally, so a below-threshold match still
// reports its actual similarity. Similarity is normalized to [0,1].
func (c *Client) Compare(ctx context.Context, reference, probe []byte) (providers.Comparison, error) {
	if len(reference) == 0 || len(probe) == 0 {
		return providers.Comparison{
			Outcome:   providers.OutcomePending,
			Threshold: c.threshold,
			Reason:    "reference or probe image is empty",
		}, nil
	}

	out, err := c.api.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         &types.Image{Bytes: reference},
		TargetImage:         &types.Image{Bytes: probe},
		SimilarityThreshold: float32Ptr(0),
	})
	if err != nil {
		// Rekognition signals "no face in one of the images" as an
		// invalid parameter, which is a subject problem, not an outage.
		if isInvalidParameter(err) {
			return providers.Comparison{
				Outcome:   providers.OutcomePending,
				Threshold: c.threshold,
				Reason:    "no face detected in one of the images",
			}, nil
		}
		return providers.Comparison{}, errors.NewProviderError("face_match", fmt.Errorf("rekognition CompareFaces: %w", err))
	}

	if len(out.FaceMatches) == 0 {
		return providers.Comparison{
			Outcome:   providers.OutcomePending,
			Threshold: c.threshold,
			Reason:    "no matching face found",
		}, nil
	}

	similarity := float64(derefFloat32(out.FaceMatches[0].Similarity)) / 100.0
	outcome := providers.OutcomePending
	if similarity >= c.threshold {
		outcome = providers.OutcomeApproved
	}

	c.logger.Info("face comparison complete", map[string]interface{}{
		"similarity": similarity,
		"threshold":  c.threshold,
		"outcome":    string(outcome),
	})

	return providers.Comparison{
		Outcome:    outcome,
		Similarity: similarity,
		Threshold:  c.threshold,
		Reason:     fmt.Sprintf("similarity %.2f%%", similarity*100),
	}, nil
}

func isInvalidParameter(err error) bool {
	var ipe *types.InvalidParameterException
	if stderrors.As(err, &ipe) {
		return true
	}
	return strings.Contains(err.Error(), "InvalidParameterException")
}

func float32Ptr(v float32) *float32 { return &v }

func derefFloat32(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}
