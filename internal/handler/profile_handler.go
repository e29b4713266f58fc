package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
	"github.com/yusufkecer/macro-tracker-backend/internal/repository"
)

type ProfileHandler struct {
	accounts *repository.AccountRepository
	profiles *repository.ProfileRepository
	calc     *metabolic.Calculator
}

func NewProfileHandler(
	accounts *repository.AccountRepository,
	profiles *repository.ProfileRepository,
	calc *metabolic.Calculator,
) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, profiles: profiles, calc: calc}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// load writes the error response itself and reports whether it succeeded.
func (h *ProfileHandler) load(w http.ResponseWriter, r *http.Request) (*domain.ProfileResponse, bool) {
	id := accountID(r)
	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("[profile] failed to get account %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return nil, false
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return nil, false
	}
	profile, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		log.Printf("[profile] failed to get profile %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return nil, false
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return nil, false
	}
	return &domain.ProfileResponse{Account: *account, Profile: *profile}, true
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var req domain.PatchProfileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if raw, ok := present["calorie_goal"]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		req.ClearGoal = true
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := accountID(r)
	if req.Email != nil {
		if err := h.accounts.UpdateEmail(r.Context(), id, domain.NormalizeEmail(*req.Email)); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				writeError(w, http.StatusConflict, "email already exists")
				return
			}
			log.Printf("[profile] failed to update email for account %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}
	}

	if err := h.profiles.Update(r.Context(), id, req.ProfileFields()); err != nil {
		log.Printf("[profile] failed to update profile %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	h.Get(w, r)
}

// Targets computes the metabolic targets from the stored profile.
func (h *ProfileHandler) Targets(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	profile, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		log.Printf("[profile] failed to get profile %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	in, ok := profile.BiometricInput()
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "profile is incomplete: height_cm, weight_kg, age and sex are required")
		return
	}
	result, err := compute(h.calc, in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
