// Package handler contains the HTTP handlers for the form API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dealerdesk/api/pkg/apierror"
	"github.com/dealerdesk/api/pkg/domain/shared"
	"github.com/dealerdesk/api/pkg/validator"
)

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError maps a domain error onto the API error envelope.
func respondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		apierror.ValidationFailed("Validation failed", verrs.ToMap()).WriteJSON(w)
		return
	}

	switch {
	case shared.IsNotFound(err):
		apierror.NotFound("").WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(errMessage(err)).WriteJSON(w)
	case shared.IsConflict(err):
		apierror.Conflict(errMessage(err)).WriteJSON(w)
	case shared.IsRejected(err):
		apierror.UpstreamRejected(errMessage(err)).WriteJSON(w)
	case shared.IsUnavailable(err):
		apierror.ServiceUnavailable(errMessage(err)).WriteJSON(w)
	default:
		apierror.FromError(err).WriteJSON(w)
	}
}

// errMessage extracts the human-readable message from a domain error,
// falling back to the raw error text.
func errMessage(err error) string {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return err.Error()
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.NewValidationError("invalid request body", err)
	}
	return nil
}
