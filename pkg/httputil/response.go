package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// MaxBodyBytes limits request bodies.
const MaxBodyBytes = 4 << 20

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// statusByCode maps error codes to HTTP statuses.
var statusByCode = map[errors.Code]int{
	errors.ErrCodeInvalidInput:     http.StatusBadRequest,
	errors.ErrCodeInvalidConfig:    http.StatusBadRequest,
	errors.ErrCodeInvalidShareLink: http.StatusBadRequest,
	errors.ErrCodeInvalidColor:     http.StatusBadRequest,
	errors.ErrCodeNoDiagram:        http.StatusBadRequest,
	errors.ErrCodeSyntax:           http.StatusUnprocessableEntity,
	errors.ErrCodeExportFailed:     http.StatusUnprocessableEntity,
	errors.ErrCodeCanceled:         http.StatusServiceUnavailable,
	errors.ErrCodeUnsupported:      http.StatusNotImplemented,
}

// StatusFor returns the HTTP status for err. Uncoded errors are 500.
func StatusFor(err error) int {
	if s, ok := statusByCode[errors.GetCode(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorBody. Internal errors are not echoed.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := ErrorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
	if status == http.StatusInternalServerError {
		body.Error = http.StatusText(status)
	}
	WriteJSON(w, status, body)
}

// DecodeJSON decodes a JSON request body into v. Unknown fields, trailing
// data and bodies over MaxBodyBytes are rejected as INVALID_INPUT.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.New(errors.ErrCodeInvalidInput, "content type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return errors.New(errors.ErrCodeInvalidInput, "request body must be a single JSON object")
	}
	return nil
}
