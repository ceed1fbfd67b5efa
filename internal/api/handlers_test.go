package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/liftlog/internal/auth"
	"example.com/liftlog/internal/catalog"
	"example.com/liftlog/internal/engine"
	"example.com/liftlog/internal/persistence/memory"
	"example.com/liftlog/internal/progression"
	"example.com/liftlog/internal/reconcile"
)

func newTestHandler() *Handler {
	store := memory.New()
	service := engine.NewService(store, catalog.New(), progression.Default())
	return NewHandler(service, reconcile.NewReconciler(service, store), store)
}

func authed(req *http.Request, scopes ...string) *http.Request {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	claims := &auth.Claims{
		Subject:   "user-1",
		TenantID:  "tenant-1",
		Scopes:    set,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func submitBody(t *testing.T, clientID string) *bytes.Reader {
	t.Helper()
	payload := SubmitWorkoutRequest{
		ClientID: clientID,
		Date:     time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC),
		Exercises: []ExerciseRequest{{
			ExerciseID: "bench-press",
			Sets:       []SetRequest{{Weight: 225, Reps: 5}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(body)
}

func TestSubmitWorkoutSuccess(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/v1/workouts", submitBody(t, "c-1"))
	req = authed(req, auth.ScopeWorkoutsWrite)

	rr := httptest.NewRecorder()
	handler.submitWorkout(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SubmitWorkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Replay {
		t.Fatalf("expected first submission, got replay")
	}
	if resp.XPEarned <= 0 {
		t.Fatalf("expected positive xp, got %d", resp.XPEarned)
	}
	if resp.CurrentStreak != 1 {
		t.Fatalf("expected streak 1 got %d", resp.CurrentStreak)
	}
	if len(resp.Records) == 0 {
		t.Fatalf("expected first-session records")
	}
}

func TestSubmitWorkoutReplayReturnsOK(t *testing.T) {
	handler := newTestHandler()

	first := httptest.NewRequest(http.MethodPost, "/v1/workouts", submitBody(t, "c-1"))
	first = authed(first, auth.ScopeWorkoutsWrite)
	rr := httptest.NewRecorder()
	handler.submitWorkout(rr, first)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr.Code)
	}
	var created SubmitWorkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	second := httptest.NewRequest(http.MethodPost, "/v1/workouts", submitBody(t, "c-1"))
	second = authed(second, auth.ScopeWorkoutsWrite)
	rr = httptest.NewRecorder()
	handler.submitWorkout(rr, second)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay got %d", rr.Code)
	}
	var replay SubmitWorkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &replay); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !replay.Replay {
		t.Fatalf("expected idempotent_replay true")
	}
	if replay.Workout.WorkoutID != created.Workout.WorkoutID {
		t.Fatalf("replay returned a different workout id")
	}
	if replay.XPEarned != 0 {
		t.Fatalf("replay must not re-award xp, got %d", replay.XPEarned)
	}
}

func TestSubmitWorkoutConvertsKilograms(t *testing.T) {
	handler := newTestHandler()

	payload := SubmitWorkoutRequest{
		Date:       time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC),
		WeightUnit: "kg",
		Exercises: []ExerciseRequest{{
			ExerciseID: "squat",
			Sets:       []SetRequest{{Weight: 100, Reps: 5}},
		}},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/workouts", bytes.NewReader(body))
	req = authed(req, auth.ScopeWorkoutsWrite)

	rr := httptest.NewRecorder()
	handler.submitWorkout(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SubmitWorkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	stored := resp.Workout.Exercises[0].Sets[0].WeightLb
	if stored < 220.4 || stored > 220.5 {
		t.Fatalf("expected 100kg stored as ~220.46lb, got %f", stored)
	}
}

func TestSubmitWorkoutValidationFailure(t *testing.T) {
	handler := newTestHandler()

	payload := SubmitWorkoutRequest{
		Date: time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC),
		Exercises: []ExerciseRequest{{
			ExerciseID: "bench-press",
			Sets:       []SetRequest{{Weight: 135, Reps: 0}},
		}},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/workouts", bytes.NewReader(body))
	req = authed(req, auth.ScopeWorkoutsWrite)

	rr := httptest.NewRecorder()
	handler.submitWorkout(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestSubmitWorkoutRequiresWriteScope(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/v1/workouts", submitBody(t, ""))
	req = authed(req, auth.ScopeWorkoutsRead)

	rr := httptest.NewRecorder()
	handler.submitWorkout(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestSyncBatch(t *testing.T) {
	handler := newTestHandler()

	payload := SyncRequest{
		Workouts: []SyncWorkoutItem{{SubmitWorkoutRequest: SubmitWorkoutRequest{
			ClientID: "c-1",
			Date:     time.Date(2026, time.May, 4, 7, 0, 0, 0, time.UTC),
			Exercises: []ExerciseRequest{{
				ExerciseID: "deadlift",
				Sets:       []SetRequest{{Weight: 405, Reps: 3}},
			}},
		}}},
		Bodyweight: []SyncBodyweightItem{{
			ClientID: "bw-1",
			Date:     time.Date(2026, time.May, 4, 6, 30, 0, 0, time.UTC),
			Weight:   185,
		}},
		DeviceID: "phone-1",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/sync", bytes.NewReader(body))
	req = authed(req, auth.ScopeSyncWrite)

	rr := httptest.NewRecorder()
	handler.sync(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Workouts) != 1 || resp.Workouts[0].Status != reconcile.StatusCommitted {
		t.Fatalf("unexpected workout results: %+v", resp.Workouts)
	}
	if len(resp.Bodyweight) != 1 || resp.Bodyweight[0].Status != reconcile.StatusCommitted {
		t.Fatalf("unexpected bodyweight results: %+v", resp.Bodyweight)
	}
	if !resp.Success || resp.WorkoutsSynced != 1 || resp.BodyweightSynced != 1 {
		t.Fatalf("unexpected batch counts: %+v", resp)
	}
}

func TestExtractionPreview(t *testing.T) {
	handler := newTestHandler()

	raw := `{"batches":[[{"name":"Barbell Bench Press","sets":[{"weight_lb":135,"reps":10,"is_warmup":true},{"weight_lb":225,"reps":5,"repeat_count":3}]},{"name":"mystery movement","sets":[{"weight_lb":95,"reps":12}]}]]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/extraction/preview", bytes.NewReader([]byte(raw)))
	req = authed(req, auth.ScopeWorkoutsWrite)

	rr := httptest.NewRecorder()
	handler.extractionPreview(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ExtractionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Matched != 1 || resp.Unmatched != 1 {
		t.Fatalf("expected 1 matched and 1 unmatched, got %d/%d", resp.Matched, resp.Unmatched)
	}
	// Warm-up discarded, 3x5 expanded.
	if resp.TotalSets != 3 {
		t.Fatalf("expected 3 convertible sets got %d", resp.TotalSets)
	}
}

func TestQuestClaimFlow(t *testing.T) {
	handler := newTestHandler()

	submit := httptest.NewRequest(http.MethodPost, "/v1/workouts", submitBody(t, "c-1"))
	submit = authed(submit, auth.ScopeWorkoutsWrite)
	rr := httptest.NewRecorder()
	handler.submitWorkout(rr, submit)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr.Code)
	}

	claim := httptest.NewRequest(http.MethodPost, "/v1/quests/daily-session/claim", nil)
	claim = authed(claim, auth.ScopeWorkoutsWrite)
	rr = httptest.NewRecorder()
	handler.questClaim(rr, claim)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ClaimQuestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected claim success")
	}
	if resp.XPEarned != 25 {
		t.Fatalf("expected 25 xp got %d", resp.XPEarned)
	}
}

func TestProgressRequiresAuth(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/progress", nil)
	rr := httptest.NewRecorder()
	handler.progress(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestListExercisesIncludesSeeds(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/exercises", nil)
	req = authed(req, auth.ScopeWorkoutsRead)

	rr := httptest.NewRecorder()
	handler.exercises(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp ExercisesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) == 0 {
		t.Fatalf("expected seeded catalog entries")
	}
}
