package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealerdesk/api/internal/app"
	"github.com/dealerdesk/api/pkg/domain/assignment"
	"github.com/dealerdesk/api/pkg/logger"
	"github.com/dealerdesk/api/pkg/validator"
)

// FormHandler serves the assignment form session API.
type FormHandler struct {
	forms    *app.FormService
	validate *validator.Validator
	log      *logger.Logger
}

// NewFormHandler creates a form handler.
func NewFormHandler(forms *app.FormService, log *logger.Logger) *FormHandler {
	return &FormHandler{
		forms:    forms,
		validate: validator.New(),
		log:      log,
	}
}

// OpenFormRequest is the body for opening a form session.
type OpenFormRequest struct {
	Kind     string            `json:"kind" validate:"required,form_kind"`
	TargetID string            `json:"target_id"`
	Draft    *assignment.Draft `json:"draft"`
}

// Open creates a new form session, optionally prefilled for editing.
func (h *FormHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenFormRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}

	f, err := h.forms.Open(r.Context(), app.OpenRequest{
		Kind:     assignment.Kind(req.Kind),
		TargetID: req.TargetID,
		Prefill:  req.Draft,
	})
	if err != nil {
		h.log.WithError(err).Error("open form session failed")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, f.View())
}

// Get returns the current state of a form session.
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, f.View())
}

// ChangeFieldRequest is the body for a single field change.
type ChangeFieldRequest struct {
	Field string `json:"field" validate:"required,cascade_field"`
	Value string `json:"value"`
}

// ChangeField applies one field change with its cascade resets.
func (h *FormHandler) ChangeField(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	var req ChangeFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}

	view, err := f.SetField(assignment.Field(req.Field), req.Value)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SetAccount updates the identity fields outside the cascade.
func (h *FormHandler) SetAccount(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	var req app.AccountUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	view, err := f.SetAccount(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Submit validates the draft and sends it to the directory. Validation and
// rejection outcomes are part of the form view, not transport errors.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := f.Submit(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Validate runs draft validation without submitting.
func (h *FormHandler) Validate(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, f.Check())
}

// Retry moves a failed form back to editing.
func (h *FormHandler) Retry(w http.ResponseWriter, r *http.Request) {
	f, err := h.forms.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := f.Retry()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Close discards a form session.
func (h *FormHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.forms.Close(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
