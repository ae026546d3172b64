// internal/providers/liveness/vision_test.go
package liveness

import (
	"bytes"
	"encoding/base64"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"

	"kyc-verifier/internal/providers"
)

func goodFace() *visionpb.FaceAnnotation {
	return &visionpb.FaceAnnotation{
		DetectionConfidence:    0.96,
		JoyLikelihood:          visionpb.Likelihood_VERY_LIKELY,
		UnderExposedLikelihood: visionpb.Likelihood_VERY_UNLIKELY,
		BlurredLikelihood:      visionpb.Likelihood_UNLIKELY,
		HeadwearLikelihood:     visionpb.Likelihood_VERY_UNLIKELY,
	}
}

func TestAssessFaces(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*visionpb.FaceAnnotation)
		faces   int
		outcome providers.Outcome
	}{
		{
			name:    "high quality smiling face approves",
			mutate:  func(*visionpb.FaceAnnotation) {},
			faces:   1,
			outcome: providers.OutcomeApproved,
		},
		{
			name:    "no face rejects",
			faces:   0,
			outcome: providers.OutcomeRejected,
		},
		{
			name:    "multiple faces reject",
			mutate:  func(*visionpb.FaceAnnotation) {},
			faces:   2,
			outcome: providers.OutcomeRejected,
		},
		{
			name: "low detection confidence rejects",
			mutate: func(f *visionpb.FaceAnnotation) {
				f.DetectionConfidence = 0.60
			},
			faces:   1,
			outcome: providers.OutcomeRejected,
		},
		{
			name: "underexposed selfie rejects",
			mutate: func(f *visionpb.FaceAnnotation) {
				f.UnderExposedLikelihood = visionpb.Likelihood_LIKELY
			},
			faces:   1,
			outcome: providers.OutcomeRejected,
		},
		{
			name: "blurred selfie rejects",
			mutate: func(f *visionpb.FaceAnnotation) {
				f.BlurredLikelihood = visionpb.Likelihood_VERY_LIKELY
			},
			faces:   1,
			outcome: providers.OutcomeRejected,
		},
		{
			name: "headwear rejects",
			mutate: func(f *visionpb.FaceAnnotation) {
				f.HeadwearLikelihood = visionpb.Likelihood_LIKELY
			},
			faces:   1,
			outcome: providers.OutcomeRejected,
		},
		{
			name: "no smile stays pending for retry",
			mutate: func(f *visionpb.FaceAnnotation) {
				f.JoyLikelihood = visionpb.Likelihood_POSSIBLE
			},
			faces:   1,
			outcome: providers.OutcomePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces := make([]*visionpb.FaceAnnotation, 0, tt.faces)
			for i := 0; i < tt.faces; i++ {
				face := goodFace()
				if tt.mutate != nil {
					tt.mutate(face)
				}
				faces = append(faces, face)
			}

			assessment := assessFaces(faces)
			assert.Equal(t, tt.outcome, assessment.Outcome)
			assert.NotEmpty(t, assessment.Reason)
		})
	}
}

func TestStripDataURI(t *testing.T) {
	raw := []byte("jpeg-bytes-here")
	encoded := append([]byte("data:image/jpeg;base64,"), base64.StdEncoding.EncodeToString(raw)...)

	assert.True(t, bytes.Equal(raw, stripDataURI(encoded)))
	assert.True(t, bytes.Equal(raw, stripDataURI(raw)), "plain bytes pass through untouched")
}
