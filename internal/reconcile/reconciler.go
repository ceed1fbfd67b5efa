// Package reconcile merges client-submitted offline batches into server
// state exactly once.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/engine"
)

// ItemStatus classifies one batch item's outcome.
type ItemStatus string

const (
	// StatusCommitted items were applied for the first time.
	StatusCommitted ItemStatus = "committed"
	// StatusDuplicate items had already been committed; the existing record
	// wins and its id is returned. Duplicates are success, not errors.
	StatusDuplicate ItemStatus = "duplicate"
	// StatusRejected items failed validation. Rejection never aborts the
	// rest of the batch.
	StatusRejected ItemStatus = "rejected"
)

// ItemResult reports one item's outcome.
type ItemResult struct {
	ClientID string     `json:"client_id"`
	Status   ItemStatus `json:"status"`
	ServerID string     `json:"server_id,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	XPEarned int64      `json:"xp_earned,omitempty"`
}

// Batch is a client's offline capture. It is ephemeral: items are
// independent, not a transaction.
type Batch struct {
	Workouts        []engine.SubmitWorkoutInput
	Bodyweight      []domain.BodyweightEntry
	Profile         *domain.Profile
	ClientTimestamp time.Time
	DeviceID        string
}

// Result reports the reconciliation outcome per item.
type Result struct {
	Workouts       []ItemResult
	Bodyweight     []ItemResult
	ProfileApplied bool
	SyncedAt       time.Time
}

// Reconciler is the single serialization point for client sync. It holds
// sole write authority for profile fields even though clients keep local
// copies.
type Reconciler struct {
	service *engine.Service
	store   domain.Store
	now     func() time.Time
}

// NewReconciler constructs a Reconciler.
func NewReconciler(service *engine.Service, store domain.Store) *Reconciler {
	return &Reconciler{
		service: service,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile merges the batch. Workout items run through the same idempotent
// commit path as direct submissions, so resubmitting a batch after a timeout
// yields the same committed-id set with no duplicate rows.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID, userID string, batch Batch) (*Result, error) {
	result := &Result{
		Workouts:   make([]ItemResult, 0, len(batch.Workouts)),
		Bodyweight: make([]ItemResult, 0, len(batch.Bodyweight)),
		SyncedAt:   r.now(),
	}

	for _, input := range batch.Workouts {
		input.TenantID = tenantID
		input.UserID = userID
		if input.Source == "" {
			input.Source = domain.SourceDeviceSync
		}
		result.Workouts = append(result.Workouts, r.reconcileWorkout(ctx, input))
	}

	for _, entry := range batch.Bodyweight {
		entry.TenantID = tenantID
		entry.UserID = userID
		if entry.Source == "" {
			entry.Source = domain.SourceDeviceSync
		}
		result.Bodyweight = append(result.Bodyweight, r.reconcileBodyweight(ctx, entry))
	}

	if batch.Profile != nil {
		// A profile store failure must not discard the outcomes of items
		// already committed in this batch. The client resends the profile
		// with its next batch and LWW re-applies it.
		applied, err := r.reconcileProfile(ctx, tenantID, userID, *batch.Profile)
		result.ProfileApplied = applied && err == nil
	}

	return result, nil
}

func (r *Reconciler) reconcileWorkout(ctx context.Context, input engine.SubmitWorkoutInput) ItemResult {
	item := ItemResult{ClientID: input.ClientID}

	submitted, err := r.service.SubmitWorkout(ctx, input)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			item.Status = StatusRejected
			item.Reason = verr.Code
			return item
		}
		item.Status = StatusRejected
		item.Reason = "server_error"
		return item
	}

	item.ServerID = submitted.Workout.ID
	if submitted.Replay {
		item.Status = StatusDuplicate
	} else {
		item.Status = StatusCommitted
		item.XPEarned = submitted.XPEarned
	}
	return item
}

func (r *Reconciler) reconcileBodyweight(ctx context.Context, entry domain.BodyweightEntry) ItemResult {
	item := ItemResult{ClientID: entry.ClientID}

	if err := domain.ValidateBodyweight(&entry); err != nil {
		item.Status = StatusRejected
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			item.Reason = verr.Code
		} else {
			item.Reason = "invalid"
		}
		return item
	}

	if entry.ClientID != "" {
		existing, err := r.store.FindBodyweightByClientID(ctx, entry.TenantID, entry.UserID, entry.ClientID)
		if err != nil {
			item.Status = StatusRejected
			item.Reason = "server_error"
			return item
		}
		if existing != nil {
			item.Status = StatusDuplicate
			item.ServerID = existing.ID
			return item
		}
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = r.now()
	if err := r.store.CreateBodyweight(ctx, entry); err != nil {
		item.Status = StatusRejected
		item.Reason = "server_error"
		return item
	}
	item.Status = StatusCommitted
	item.ServerID = entry.ID
	return item
}

// reconcileProfile applies last-write-wins by updated timestamp. The server
// copy stands when it is at least as new as the client's.
func (r *Reconciler) reconcileProfile(ctx context.Context, tenantID, userID string, incoming domain.Profile) (bool, error) {
	incoming.TenantID = tenantID
	incoming.UserID = userID

	current, err := r.store.GetProfile(ctx, tenantID, userID)
	if err != nil {
		return false, err
	}
	if current != nil && !incoming.UpdatedAt.After(current.UpdatedAt) {
		return false, nil
	}
	if err := r.store.UpsertProfile(ctx, incoming); err != nil {
		return false, err
	}
	return true, nil
}
