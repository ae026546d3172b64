// internal/providers/docauth/inspector_test.go
package docauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/providers"
)

func jpegPayload(size int) []byte {
	payload := make([]byte, size)
	copy(payload, []byte{0xFF, 0xD8, 0xFF})
	return payload
}

func TestInspect(t *testing.T) {
	inspector := NewInspector(logger.Nop())

	tests := []struct {
		name     string
		document []byte
		outcome  providers.Outcome
	}{
		{"valid jpeg approves", jpegPayload(50000), providers.OutcomeApproved},
		{"empty payload rejects", nil, providers.OutcomeRejected},
		{"tiny payload rejects", jpegPayload(500), providers.OutcomeRejected},
		{"non-image payload rejects", make([]byte, 50000), providers.OutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspection, err := inspector.Inspect(context.Background(), tt.document)

			require.NoError(t, err)
			assert.Equal(t, tt.outcome, inspection.Outcome)
			assert.NotEmpty(t, inspection.Reason)
		})
	}
}

func TestInspect_PNGSignatureAccepted(t *testing.T) {
	inspector := NewInspector(logger.Nop())

	payload := make([]byte, 50000)
	copy(payload, []byte{0x89, 0x50, 0x4E, 0x47})

	inspection, err := inspector.Inspect(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, providers.OutcomeApproved, inspection.Outcome)
	assert.Contains(t, inspection.Checks, "image_signature")
}
