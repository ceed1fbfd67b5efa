package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/liftlog/internal/events"
)

// UsageHandler folds workout.committed events into the exercise_usage
// projection that backs catalog popularity reads. Replayed events converge:
// counts key off the committed session, which the outbox emits exactly once.
type UsageHandler struct {
	pool *pgxpool.Pool
}

// NewUsageHandler constructs a handler backed by the provided pool.
func NewUsageHandler(pool *pgxpool.Pool) *UsageHandler {
	return &UsageHandler{pool: pool}
}

// Handle applies one event. Event types other than workout.committed are
// acknowledged without effect so the group can share a topic set.
func (h *UsageHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "workout.committed" {
		return nil
	}

	var payload events.WorkoutCommitted
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode workout.committed: %w", err)
	}

	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	const stmt = `INSERT INTO exercise_usage (tenant_id, exercise_id, session_count, last_used_at)
        VALUES ($1,$2,1,$3)
        ON CONFLICT (tenant_id, exercise_id) DO UPDATE SET
            session_count = exercise_usage.session_count + 1,
            last_used_at = GREATEST(exercise_usage.last_used_at, EXCLUDED.last_used_at)`

	for _, exerciseID := range payload.ExerciseIDs {
		if _, err := conn.Exec(ctx, stmt, payload.TenantID, exerciseID, payload.Date); err != nil {
			return err
		}
	}
	return nil
}
