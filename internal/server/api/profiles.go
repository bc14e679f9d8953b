package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/store"
)

// ProfileHandler handles profiles and the records and settings that hang
// off them.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// Request and response types

type profileRequest struct {
	Username        string  `json:"username"`
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	Gender          string  `json:"gender"`
	Age             int     `json:"age"`
	HeightValue     float64 `json:"height_value"`
	HeightUnit      string  `json:"height_unit"`
	WeightValue     float64 `json:"weight_value"`
	WeightUnit      string  `json:"weight_unit"`
	ProfileImage    string  `json:"profile_image"`
	NeedsOnboarding *bool   `json:"needs_onboarding"`
}

type profileResponse struct {
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	Gender          string  `json:"gender"`
	Age             int     `json:"age"`
	HeightValue     float64 `json:"height_value"`
	HeightUnit      string  `json:"height_unit"`
	WeightValue     float64 `json:"weight_value"`
	WeightUnit      string  `json:"weight_unit"`
	ProfileImage    string  `json:"profile_image,omitempty"`
	NeedsOnboarding bool    `json:"needs_onboarding"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type recordRequest struct {
	Exercise        string `json:"exercise"`
	Name            string `json:"name"`
	Timestamp       int64  `json:"timestamp"`
	Reps            int    `json:"reps"`
	DurationSeconds int    `json:"duration_seconds"`
}

type recordResponse struct {
	ID              string `json:"id"`
	Exercise        string `json:"exercise"`
	Name            string `json:"name"`
	Timestamp       int64  `json:"timestamp"`
	Reps            int    `json:"reps"`
	DurationSeconds int    `json:"duration_seconds"`
}

type listRecordsResponse struct {
	Records []recordResponse `json:"records"`
}

type totalResponse struct {
	Exercise        string `json:"exercise"`
	Name            string `json:"name"`
	Sessions        int    `json:"sessions"`
	Reps            int    `json:"reps"`
	DurationSeconds int    `json:"duration_seconds"`
	LastTimestamp   int64  `json:"last_timestamp"`
}

type listTotalsResponse struct {
	Totals []totalResponse `json:"totals"`
}

type settingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func toProfileResponse(p *store.Profile) profileResponse {
	return profileResponse{
		UserID:          p.UserID,
		Username:        p.Username,
		FullName:        p.FullName,
		Email:           p.Email,
		Gender:          p.Gender,
		Age:             p.Age,
		HeightValue:     p.HeightValue,
		HeightUnit:      p.HeightUnit,
		WeightValue:     p.WeightValue,
		WeightUnit:      p.WeightUnit,
		ProfileImage:    p.ProfileImage,
		NeedsOnboarding: p.NeedsOnboarding,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

func toRecordResponse(r *store.ExerciseRecord) recordResponse {
	return recordResponse{
		ID:              r.ID,
		Exercise:        r.Exercise,
		Name:            r.Name,
		Timestamp:       r.Timestamp,
		Reps:            r.Reps,
		DurationSeconds: r.DurationSeconds,
	}
}

// writeStoreError maps store sentinels to status codes.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("resource", what).Msg("store request failed")
		writeError(w, http.StatusInternalServerError, "Failed to access "+what)
	}
}

// Get handles GET /api/profiles/{id}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profiles().Get(mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err, "Profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// Put handles PUT /api/profiles/{id}, creating or replacing the profile.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &store.Profile{
		UserID:       id,
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        req.Email,
		Gender:       req.Gender,
		Age:          req.Age,
		HeightValue:  req.HeightValue,
		HeightUnit:   req.HeightUnit,
		WeightValue:  req.WeightValue,
		WeightUnit:   req.WeightUnit,
		ProfileImage: req.ProfileImage,
	}
	if err := h.store.Profiles().Save(p); err != nil {
		writeStoreError(w, err, "Profile")
		return
	}
	if req.NeedsOnboarding != nil && !*req.NeedsOnboarding {
		if err := h.store.Profiles().CompleteOnboarding(id); err != nil {
			writeStoreError(w, err, "Profile")
			return
		}
	}

	saved, err := h.store.Profiles().Get(id)
	if err != nil {
		writeStoreError(w, err, "Profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(saved))
}

// Delete handles DELETE /api/profiles/{id}. Records and settings go with it.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Profiles().Delete(mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err, "Profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRecords handles GET /api/profiles/{id}/records?limit=N, newest first.
func (h *ProfileHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.store.Records().List(mux.Vars(r)["id"], limit)
	if err != nil {
		writeStoreError(w, err, "Records")
		return
	}

	response := listRecordsResponse{Records: make([]recordResponse, 0, len(records))}
	for _, rec := range records {
		response.Records = append(response.Records, toRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, response)
}

// AddRecord handles POST /api/profiles/{id}/records.
func (h *ProfileHandler) AddRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().UnixMilli()
	}

	rec := &store.ExerciseRecord{
		UserID:          mux.Vars(r)["id"],
		Exercise:        req.Exercise,
		Name:            req.Name,
		Timestamp:       req.Timestamp,
		Reps:            req.Reps,
		DurationSeconds: req.DurationSeconds,
	}
	if err := h.store.Records().Add(rec); err != nil {
		writeStoreError(w, err, "Record")
		return
	}
	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

// Totals handles GET /api/profiles/{id}/totals.
func (h *ProfileHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.Records().Totals(mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err, "Totals")
		return
	}

	response := listTotalsResponse{Totals: make([]totalResponse, 0, len(totals))}
	for _, t := range totals {
		response.Totals = append(response.Totals, totalResponse(t))
	}
	writeJSON(w, http.StatusOK, response)
}

// ListSettings handles GET /api/profiles/{id}/settings.
func (h *ProfileHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings().List(mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err, "Settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// GetSetting handles GET /api/profiles/{id}/settings/{key}.
func (h *ProfileHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	value, err := h.store.Settings().Get(vars["id"], vars["key"])
	if err != nil {
		writeStoreError(w, err, "Setting")
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: vars["key"], Value: value})
}

// PutSetting handles PUT /api/profiles/{id}/settings/{key}.
func (h *ProfileHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Settings().Set(vars["id"], vars["key"], req.Value); err != nil {
		writeStoreError(w, err, "Setting")
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: vars["key"], Value: req.Value})
}
