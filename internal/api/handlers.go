// Package api exposes HTTP handlers for the workout engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/liftlog/internal/auth"
	"example.com/liftlog/internal/catalog"
	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/engine"
	"example.com/liftlog/internal/extraction"
	"example.com/liftlog/internal/persistence"
	"example.com/liftlog/internal/reconcile"
)

// Handler coordinates HTTP requests with the engine service.
type Handler struct {
	service    *engine.Service
	reconciler *reconcile.Reconciler
	matcher    *extraction.Matcher
	store      domain.Store
}

// NewHandler builds a Handler.
func NewHandler(service *engine.Service, reconciler *reconcile.Reconciler, store domain.Store) *Handler {
	return &Handler{
		service:    service,
		reconciler: reconciler,
		matcher:    extraction.NewMatcher(service.Catalog()),
		store:      store,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workouts", h.workouts)
	mux.HandleFunc("/v1/workouts/", h.workoutByID)
	mux.HandleFunc("/v1/sync", h.sync)
	mux.HandleFunc("/v1/extraction/preview", h.extractionPreview)
	mux.HandleFunc("/v1/extraction/confirm", h.extractionConfirm)
	mux.HandleFunc("/v1/quests/", h.questClaim)
	mux.HandleFunc("/v1/progress", h.progress)
	mux.HandleFunc("/v1/records", h.records)
	mux.HandleFunc("/v1/exercises", h.exercises)
	mux.HandleFunc("/v1/bodyweight", h.bodyweight)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitWorkout(w, r)
	case http.MethodGet:
		h.listWorkouts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) workoutByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/workouts/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing workout id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getWorkout(w, r, id)
	case http.MethodDelete:
		h.deleteWorkout(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) submitWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req SubmitWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input, err := req.toInput(claims.TenantID, claims.Subject)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		input.ClientID = key
	}

	result, err := h.service.SubmitWorkout(r.Context(), input)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replay {
		status = http.StatusOK
	}
	writeJSON(w, status, toSubmitView(result))
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	workout, err := h.service.GetWorkout(r.Context(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrWorkoutNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "workout not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toWorkoutView(*workout))
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteWorkout(r.Context(), claims.TenantID, claims.Subject, id); err != nil {
		if errors.Is(err, domain.ErrWorkoutNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "workout not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	workouts, next, err := h.service.ListWorkouts(r.Context(), claims.TenantID, claims.Subject, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]WorkoutView, 0, len(workouts))
	for _, workout := range workouts {
		items = append(items, toWorkoutView(workout))
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeSyncWrite)
	if !ok {
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	batch, err := req.toBatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), claims.TenantID, claims.Subject, batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSyncView(result))
}

func (h *Handler) extractionPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeWorkoutsWrite); !ok {
		return
	}

	var req ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	result := h.matcher.Match(extraction.Union(req.Batches...))
	writeJSON(w, http.StatusOK, toExtractionView(result))
}

func (h *Handler) extractionConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req ConfirmExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "validation_failed", "date is required")
		return
	}

	result := h.matcher.Match(extraction.Union(req.Batches...))
	if len(result.Convertible) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "nothing_convertible", "no blocks matched the catalog")
		return
	}

	exercises := make([]domain.WorkoutExercise, 0, len(result.Convertible))
	for _, conv := range result.Convertible {
		exercises = append(exercises, domain.WorkoutExercise{
			ExerciseID: conv.ExerciseID,
			OrderIndex: conv.OrderIndex,
			Sets:       conv.Sets,
		})
	}

	submitted, err := h.service.SubmitWorkout(r.Context(), engine.SubmitWorkoutInput{
		TenantID:  claims.TenantID,
		UserID:    claims.Subject,
		ClientID:  req.ClientID,
		Date:      req.Date,
		Notes:     req.Notes,
		Source:    domain.SourceExtracted,
		Exercises: exercises,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	status := http.StatusCreated
	if submitted.Replay {
		status = http.StatusOK
	}
	writeJSON(w, status, ConfirmExtractionResponse{
		Submit:     toSubmitView(submitted),
		Extraction: toExtractionView(result),
	})
}

func (h *Handler) questClaim(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/quests/")
	questID := strings.TrimSuffix(rest, "/claim")
	if r.Method != http.MethodPost || questID == "" || questID == rest {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	claim, err := h.service.ClaimQuest(r.Context(), claims.TenantID, claims.Subject, questID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "quest not found")
			return
		}
		if errors.Is(err, engine.ErrRetriesExhausted) {
			writeError(w, http.StatusConflict, "conflict", "concurrent progress updates, retry")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ClaimQuestResponse{
		Success:     claim.Success,
		XPEarned:    claim.XPEarned,
		TotalXP:     claim.TotalXP,
		Level:       claim.Level,
		LeveledUp:   claim.LeveledUp,
		Rank:        claim.Rank,
		RankChanged: claim.RankChanged,
	})
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeProgressRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	view, err := h.service.GetProgress(r.Context(), claims.TenantID, claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProgressView(view))
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeProgressRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	records, err := h.service.ListRecords(r.Context(), claims.TenantID, claims.Subject, r.URL.Query().Get("exercise_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RecordsResponse{Records: records})
}

func (h *Handler) exercises(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listExercises(w, r)
	case http.MethodPost:
		h.createExercise(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) listExercises(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	usage, err := h.store.ListExerciseUsage(r.Context(), claims.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	usageByID := make(map[string]domain.ExerciseUsage, len(usage))
	for _, row := range usage {
		usageByID[row.ExerciseID] = row
	}

	entries := h.service.Catalog().List()
	items := make([]ExerciseView, 0, len(entries))
	for _, ex := range entries {
		view := ExerciseView{Exercise: ex}
		if row, found := usageByID[ex.ID]; found {
			view.SessionCount = row.SessionCount
			view.LastUsedAt = row.LastUsedAt
		}
		items = append(items, view)
	}
	writeJSON(w, http.StatusOK, ExercisesResponse{Items: items})
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, auth.ScopeWorkoutsWrite); !ok {
		return
	}

	var req CreateExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	exercise, err := h.service.Catalog().AddCustom(req.Name, catalog.Category(req.Category), req.PrimaryMuscle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, exercise)
}

func (h *Handler) bodyweight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeWorkoutsRead, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.service.ListBodyweight(r.Context(), claims.TenantID, claims.Subject, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BodyweightResponse{Entries: entries})
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Code, verr.Detail)
		return
	}
	if errors.Is(err, engine.ErrRetriesExhausted) {
		writeError(w, http.StatusConflict, "conflict", "concurrent progress updates, retry")
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
