package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// Problem types following RFC 7807.
const (
	TypeInvalidRequest    = "/errors/invalid-request"
	TypeInvalidCredential = "/errors/invalid-credential"
	TypeUnauthorized      = "/errors/unauthorized"
	TypeFileTooLarge      = "/errors/file-too-large"
	TypeMalformedInput    = "/errors/malformed-input"
	TypeNoExport          = "/errors/no-export"
	TypeInternal          = "/errors/internal"
)

// Domain sentinel errors. Handlers map these onto problem responses;
// services wrap them with fmt.Errorf("...: %w", err) for context.
var (
	// ErrInvalidCredential is returned by the access gate on mismatch.
	// Recoverable: the caller re-prompts. There is deliberately no lockout
	// or backoff in the demo scope.
	ErrInvalidCredential = errors.New("invalid access code")

	// ErrNotAuthenticated is returned when a gated operation runs on a
	// session that has not passed the access check.
	ErrNotAuthenticated = errors.New("session is not authenticated")

	// ErrFileTooLarge is returned before any parsing when the declared
	// upload size exceeds the demo ceiling.
	ErrFileTooLarge = errors.New("uploaded file exceeds the demo size limit")

	// ErrMalformedInput is returned when the upload cannot be parsed as
	// delimited text with a header row.
	ErrMalformedInput = errors.New("uploaded file could not be parsed")

	// ErrEncodingFailure is returned when the export cannot produce valid
	// output bytes. Surfaced to callers as a generic processing error.
	ErrEncodingFailure = errors.New("failed to encode processed data")

	// ErrNoExport is returned when a download is requested before any
	// processing has produced an artifact in the session.
	ErrNoExport = errors.New("no processed result available for download")
)

// ProblemDetails is an RFC 7807 response body.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens extensions into the problem object.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, 5+len(pd.Extensions))
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// NewProblemDetails creates a problem response.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension member and returns the problem for
// chaining.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// ToProblem maps a pipeline error onto its problem response. Unrecognized
// errors become a generic internal problem so algorithm internals never
// leak to the caller.
func ToProblem(err error, instance string) *ProblemDetails {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return NewProblemDetails(http.StatusUnauthorized, TypeInvalidCredential,
			"Invalid Access Code", "The supplied access code is not valid.", instance)
	case errors.Is(err, ErrNotAuthenticated):
		return NewProblemDetails(http.StatusUnauthorized, TypeUnauthorized,
			"Access Required", "Enter a valid access code before processing data.", instance)
	case errors.Is(err, ErrFileTooLarge):
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypeFileTooLarge,
			"File Too Large", err.Error(), instance)
	case errors.Is(err, ErrMalformedInput):
		return NewProblemDetails(http.StatusBadRequest, TypeMalformedInput,
			"Malformed Input", err.Error(), instance)
	case errors.Is(err, ErrNoExport):
		return NewProblemDetails(http.StatusNotFound, TypeNoExport,
			"No Export Available", "Process a file before requesting a download.", instance)
	default:
		return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
			"Processing Error", "The request could not be processed.", instance)
	}
}
