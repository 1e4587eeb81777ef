package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 4 << 20

var validate = validator.New()

type openSessionRequest struct {
	DocumentID string `json:"document_id" validate:"required,max=256"`
}

type scrollRequest struct {
	Fraction *float64 `json:"fraction" validate:"required,gte=0,lte=1"`
}

// positionRequest names a page or a character offset. Both are optional for
// PUT position, which then saves the current anchor.
type positionRequest struct {
	Page   int  `json:"page" validate:"omitempty,min=1"`
	Offset *int `json:"offset" validate:"omitempty,min=0"`
}

type resolveRequest struct {
	References    []referenceInput `json:"references" validate:"required,min=1,max=500,dive"`
	ContextRadius int              `json:"context_radius" validate:"omitempty,min=0,max=10000"`
}

type referenceInput struct {
	ID          string `json:"id" validate:"max=256"`
	Content     string `json:"content"`
	StartOffset *int   `json:"start_offset"`
	EndOffset   *int   `json:"end_offset"`
	Page        int    `json:"page"`
	Chapter     string `json:"chapter"`
	DocumentID  string `json:"document_id" validate:"max=256"`
}

// validationError carries per-field failures, reported as 422.
type validationError struct {
	Errors map[string]string
}

func (e *validationError) Error() string {
	return "validation failed"
}

// decodeBody reads a JSON body into v and validates it. An empty body is
// allowed when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("invalid json body: %w", err)
		}
	}
	if err := validate.Struct(v); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return err
		}
		out := make(map[string]string, len(errs))
		for _, e := range errs {
			out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return &validationError{Errors: out}
	}
	return nil
}

// writeDecodeError responds to a decodeBody failure.
func writeDecodeError(w http.ResponseWriter, err error) {
	var ve *validationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  ve.Error(),
			"fields": ve.Errors,
		})
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
