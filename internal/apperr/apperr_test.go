package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatusAndCode(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		code   string
	}{
		{KindValidation, http.StatusBadRequest, "validation"},
		{KindNotFound, http.StatusNotFound, "not_found"},
		{KindStorage, http.StatusInternalServerError, "storage_error"},
		{KindInference, http.StatusUnprocessableEntity, "inference_error"},
		{Kind(0), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
			assert.Equal(t, tt.code, tt.kind.String())
		})
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("train: %w", Validation("dataset has no %s column", "final_score"))

	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindStorage))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestStorageUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("load data file", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load data file: connection refused", err.Error())
}

func TestPublic(t *testing.T) {
	assert.Equal(t, "load data file", Public(Storage("load data file", errors.New("dial tcp 10.0.0.1"))))
	assert.Equal(t, "No valid features found in dataset", Public(Validation("No valid features found in dataset")))
	assert.Equal(t, "predict: bad tree", Public(Inference("predict", errors.New("bad tree"))))
	assert.Equal(t, "internal error", Public(errors.New("boom")))
}
