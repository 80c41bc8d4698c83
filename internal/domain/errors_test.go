package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", ValidationError("op", "bad room"), KindValidation},
		{"unauthorized", UnauthorizedError("op"), KindUnauthorized},
		{"upstream", UpstreamError("op", cause), KindUpstream},
		{"storage", StorageError("op", cause), KindStorage},
		{"wrapped", fmt.Errorf("outer: %w", StorageError("op", cause)), KindStorage},
		{"plain", cause, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("status 500")
	err := UpstreamError("service.Generate", cause)

	assert.Equal(t, "prediction failed", MessageOf(err))
	assert.Equal(t, "service.Generate: prediction failed: status 500", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "internal error", MessageOf(cause))
	assert.Equal(t, "unauthorized", (&Error{Kind: KindUnauthorized}).Error())
}
