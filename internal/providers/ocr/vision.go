// internal/providers/ocr/vision.go
// Package ocr extracts document text with the Google Cloud Vision API.
package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
)

// Client runs DOCUMENT_TEXT_DETECTION against document images.
type Client struct {
	annotator *vision.ImageAnnotatorClient
	logger    logger.Logger
}

// NewClient builds a Vision OCR client. credentialsJSON may be empty, in
// which case application default credentials apply.
func NewClient(ctx context.Context, credentialsJSON string, log logger.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	annotator, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, errors.NewOCRFailedError(fmt.Errorf("initialize vision client: %w", err))
	}

	return &Client{
		annotator: annotator,
		logger:    log.WithFields(map[string]interface{}{"provider": "gcp_vision_ocr"}),
	}, nil
}

// ExtractText runs full document text detection and returns the raw text
// with its original line structure preserved. An image with no detectable
// text yields an empty string without error.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := c.annotator.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", errors.NewOCRFailedError(fmt.Errorf("vision BatchAnnotateImages: %w", err))
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", errors.NewOCRFailedError(fmt.Errorf("vision annotate: %s", r0.Error.Message))
	}

	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		c.logger.Debug("no text detected in document image", nil)
		return "", nil
	}

	c.logger.Debug("document text extracted", map[string]interface{}{
		"chars": len(fta.Text),
		"pages": len(fta.Pages),
	})
	return fta.Text, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c.annotator != nil {
		return c.annotator.Close()
	}
	return nil
}
