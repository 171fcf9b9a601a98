package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToProblem(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "invalid credential",
			err:        ErrInvalidCredential,
			wantStatus: http.StatusUnauthorized,
			wantType:   TypeInvalidCredential,
		},
		{
			name:       "not authenticated",
			err:        ErrNotAuthenticated,
			wantStatus: http.StatusUnauthorized,
			wantType:   TypeUnauthorized,
		},
		{
			name:       "file too large",
			err:        ErrFileTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypeFileTooLarge,
		},
		{
			name:       "malformed input",
			err:        ErrMalformedInput,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeMalformedInput,
		},
		{
			name:       "no export",
			err:        ErrNoExport,
			wantStatus: http.StatusNotFound,
			wantType:   TypeNoExport,
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("parsing upload: %w", ErrMalformedInput),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeMalformedInput,
		},
		{
			name:       "unknown error stays generic",
			err:        errors.New("filter design blew up at section 3"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := ToProblem(tt.err, "/api/process")

			assert.Equal(t, tt.wantStatus, pd.Status)
			assert.Equal(t, tt.wantType, pd.Type)
			assert.Equal(t, "/api/process", pd.Instance)
		})
	}
}

func TestToProblem_InternalErrorDoesNotLeakDetail(t *testing.T) {
	pd := ToProblem(errors.New("nil pointer in biquad chain"), "/api/process")

	assert.NotContains(t, pd.Detail, "biquad")
	assert.NotContains(t, pd.Title, "biquad")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusRequestEntityTooLarge, TypeFileTooLarge,
		"File Too Large", "file exceeds the demo size limit", "/api/process").
		WithExtension("max_file_bytes", 2097152)

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, TypeFileTooLarge, decoded["type"])
	assert.Equal(t, float64(http.StatusRequestEntityTooLarge), decoded["status"])
	assert.Equal(t, float64(2097152), decoded["max_file_bytes"])
}

func TestProblemDetails_MarshalJSON_OmitsEmptyFields(t *testing.T) {
	pd := NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Processing Error", "", "")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "detail")
	assert.NotContains(t, decoded, "instance")
}
