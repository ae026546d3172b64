// internal/providers/liveness/vision.go
// Package liveness implements passive liveness detection on top of the
// Google Cloud Vision face detection API. No challenge-response round
// trip happens; the verdict comes from quality signals on a single selfie.
package liveness

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/providers"
)

const (
	// minSelfieBytes rejects thumbnails and truncated uploads outright.
	minSelfieBytes = 5000
	// minFaceConfidence is the floor for the detector's own confidence.
	minFaceConfidence = 0.85
)

// Client assesses selfies with Vision face detection.
type Client struct {
	annotator *vision.ImageAnnotatorClient
	logger    logger.Logger
}

// NewClient builds a Vision liveness client. credentialsJSON may be empty,
// in which case application default credentials apply.
func NewClient(ctx context.Context, credentialsJSON string, log logger.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	annotator, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, errors.NewProviderError("liveness", fmt.Errorf("initialize vision client: %w", err))
	}

	return &Client{
		annotator: annotator,
		logger:    log.WithFields(map[string]interface{}{"provider": "gcp_vision_liveness"}),
	}, nil
}

// Assess runs the passive liveness battery: exactly one sharp,
// well-exposed, uncovered face, with a clear smile required for approval.
// A good-quality face without a smile comes back PENDING so the subject
// can retry, not REJECTED.
func (c *Client) Assess(ctx context.Context, selfie []byte) (providers.Assessment, error) {
	selfie = stripDataURI(selfie)
	if len(selfie) < minSelfieBytes {
		return providers.Assessment{
			Outcome: providers.OutcomeRejected,
			Reason:  "selfie image too small or invalid",
		}, nil
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: selfie},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_FACE_DETECTION},
				},
			},
		},
	}

	resp, err := c.annotator.BatchAnnotateImages(ctx, req)
	if err != nil {
		return providers.Assessment{}, errors.NewProviderError("liveness", fmt.Errorf("vision face detection: %w", err))
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return providers.Assessment{}, errors.NewProviderError("liveness", fmt.Errorf("vision returned empty response"))
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return providers.Assessment{}, errors.NewProviderError("liveness", fmt.Errorf("vision annotate: %s", r0.Error.Message))
	}

	assessment := assessFaces(r0.FaceAnnotations)
	c.logger.Info("passive liveness assessed", map[string]interface{}{
		"outcome":         string(assessment.Outcome),
		"face_confidence": assessment.FaceConfidence,
	})
	return assessment, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c.annotator != nil {
		return c.annotator.Close()
	}
	return nil
}

// assessFaces applies the passive liveness rules to the detector output.
func assessFaces(faces []*visionpb.FaceAnnotation) providers.Assessment {
	if len(faces) == 0 {
		return providers.Assessment{
			Outcome: providers.OutcomeRejected,
			Reason:  "no face detected in selfie",
		}
	}
	if len(faces) > 1 {
		return providers.Assessment{
			Outcome: providers.OutcomeRejected,
			Reason:  fmt.Sprintf("multiple faces detected (%d), selfie must contain a single person", len(faces)),
		}
	}

	face := faces[0]
	confidence := float64(face.DetectionConfidence)

	if confidence < minFaceConfidence {
		return providers.Assessment{
			Outcome:        providers.OutcomeRejected,
			Reason:         fmt.Sprintf("face not sharp enough (confidence %.2f)", confidence),
			FaceConfidence: confidence,
		}
	}
	if likely(face.UnderExposedLikelihood) {
		return providers.Assessment{
			Outcome:        providers.OutcomeRejected,
			Reason:         "selfie is underexposed",
			FaceConfidence: confidence,
		}
	}
	if likely(face.BlurredLikelihood) {
		return providers.Assessment{
			Outcome:        providers.OutcomeRejected,
			Reason:         "selfie is blurred",
			FaceConfidence: confidence,
		}
	}
	if likely(face.HeadwearLikelihood) {
		return providers.Assessment{
			Outcome:        providers.OutcomeRejected,
			Reason:         "headwear covering the face is not allowed",
			FaceConfidence: confidence,
		}
	}

	if !likely(face.JoyLikelihood) {
		return providers.Assessment{
			Outcome:        providers.OutcomePending,
			Reason:         "no clear smile detected, retry smiling at the camera",
			FaceConfidence: confidence,
		}
	}

	return providers.Assessment{
		Outcome:        providers.OutcomeApproved,
		Reason:         "single high-quality face with smile detected",
		FaceConfidence: confidence,
	}
}

func likely(l visionpb.Likelihood) bool {
	return l == visionpb.Likelihood_LIKELY || l == visionpb.Likelihood_VERY_LIKELY
}

// stripDataURI decodes selfies uploaded as data:image/...;base64 payloads.
func stripDataURI(img []byte) []byte {
	if !bytes.HasPrefix(img, []byte("data:image")) {
		return img
	}
	idx := bytes.IndexByte(img, ',')
	if idx < 0 {
		return img
	}
	decoded, err := base64.StdEncoding.DecodeString(string(img[idx+1:]))
	if err != nil {
		return img
	}
	return decoded
}
