// Package postgres provides the pgx-backed store with row-level tenant
// isolation and transactional outbox writes.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/events"
)

// Repository implements domain.Store on Postgres. Every operation pins
// app.tenant_id for the transaction so RLS policies apply.
type Repository struct {
	pool *pgxpool.Pool
}

var _ domain.Store = (*Repository)(nil)

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func setTenant(ctx context.Context, tx pgx.Tx, tenantID string) error {
	_, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID)
	return err
}

// CommitWorkout applies the whole commit in one transaction: session rows,
// records, the versioned progress upsert, quest and achievement transitions,
// and the outbox events. A progress row that moved underneath the commit
// rolls everything back with ErrVersionConflict.
func (r *Repository) CommitWorkout(ctx context.Context, commit domain.WorkoutCommit) error {
	session := commit.Session

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = setTenant(ctx, tx, session.TenantID); err != nil {
		return err
	}

	if err = r.insertSession(ctx, tx, session); err != nil {
		return err
	}
	if err = r.advanceProgress(ctx, tx, commit.Progress); err != nil {
		return err
	}
	if err = r.insertRecords(ctx, tx, commit.Records); err != nil {
		return err
	}
	if err = r.upsertQuests(ctx, tx, commit.Quests); err != nil {
		return err
	}
	if err = r.insertAchievements(ctx, tx, commit.Achievements); err != nil {
		return err
	}
	if err = r.insertCommitEvents(ctx, tx, commit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) insertSession(ctx context.Context, tx pgx.Tx, session domain.WorkoutSession) error {
	const insertSession = `INSERT INTO workout_sessions (workout_id, tenant_id, user_id, client_id, workout_date, duration_min, session_rpe, notes, source, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := tx.Exec(ctx, insertSession,
		session.ID,
		session.TenantID,
		session.UserID,
		nullIfEmpty(session.ClientID),
		session.Date,
		session.DurationMinutes,
		session.SessionRPE,
		session.Notes,
		session.Source,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		// A rival commit claimed the client id between the idempotency lookup
		// and this insert. Surface it so the engine replays the winner.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "workout_sessions_client_key" {
			return domain.ErrDuplicateClientID
		}
		return err
	}

	const insertExercise = `INSERT INTO workout_exercises (exercise_row_id, workout_id, tenant_id, exercise_id, order_index)
        VALUES ($1,$2,$3,$4,$5)`
	const insertSet = `INSERT INTO exercise_sets (set_id, exercise_row_id, tenant_id, set_number, weight_lb, reps, rpe, rir, e1rm, e1rm_stale)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	for _, ex := range session.Exercises {
		if _, err := tx.Exec(ctx, insertExercise, ex.ID, session.ID, session.TenantID, ex.ExerciseID, ex.OrderIndex); err != nil {
			return err
		}
		for _, set := range ex.Sets {
			if _, err := tx.Exec(ctx, insertSet,
				set.ID, ex.ID, session.TenantID, set.SetNumber, set.Weight, set.Reps, set.RPE, set.RIR, set.E1RM, set.E1RMStale,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// advanceProgress applies the optimistic version check. Progress.Version
// carries the version that was read; zero means the row did not exist yet.
func (r *Repository) advanceProgress(ctx context.Context, tx pgx.Tx, progress domain.UserProgress) error {
	if progress.Version == 0 {
		const insert = `INSERT INTO user_progress (tenant_id, user_id, total_xp, level, current_streak, longest_streak, last_workout_date, total_workouts, total_volume_lb, total_prs, policy_version, version, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,1,$12)
            ON CONFLICT (tenant_id, user_id) DO NOTHING`
		tag, err := tx.Exec(ctx, insert,
			progress.TenantID, progress.UserID, progress.TotalXP, progress.Level,
			progress.CurrentStreak, progress.LongestStreak, progress.LastWorkoutDate,
			progress.TotalWorkouts, progress.TotalVolumeLb, progress.TotalPRs,
			progress.PolicyVersion, progress.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	}

	const update = `UPDATE user_progress SET
            total_xp=$3, level=$4, current_streak=$5, longest_streak=$6,
            last_workout_date=$7, total_workouts=$8, total_volume_lb=$9,
            total_prs=$10, policy_version=$11, version=version+1, updated_at=$12
        WHERE tenant_id=$1 AND user_id=$2 AND version=$13`
	tag, err := tx.Exec(ctx, update,
		progress.TenantID, progress.UserID, progress.TotalXP, progress.Level,
		progress.CurrentStreak, progress.LongestStreak, progress.LastWorkoutDate,
		progress.TotalWorkouts, progress.TotalVolumeLb, progress.TotalPRs,
		progress.PolicyVersion, progress.UpdatedAt, progress.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *Repository) insertRecords(ctx context.Context, tx pgx.Tx, records []domain.PersonalRecord) error {
	const insert = `INSERT INTO personal_records (record_id, tenant_id, user_id, exercise_id, pr_type, value, weight_lb, session_id, achieved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	for _, rec := range records {
		if _, err := tx.Exec(ctx, insert,
			rec.ID, rec.TenantID, rec.UserID, rec.ExerciseID, rec.Type, rec.Value, rec.WeightLb, rec.SessionID, rec.AchievedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) upsertQuests(ctx context.Context, tx pgx.Tx, quests []domain.QuestState) error {
	const upsert = `INSERT INTO user_quests (tenant_id, user_id, quest_id, progress, target_value, is_completed, is_claimed, refresh_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (tenant_id, user_id, quest_id) DO UPDATE SET
            progress=EXCLUDED.progress, target_value=EXCLUDED.target_value,
            is_completed=EXCLUDED.is_completed, is_claimed=EXCLUDED.is_claimed,
            refresh_at=EXCLUDED.refresh_at, updated_at=EXCLUDED.updated_at`
	for _, q := range quests {
		if _, err := tx.Exec(ctx, upsert,
			q.TenantID, q.UserID, q.QuestID, q.Progress, q.TargetValue, q.IsCompleted, q.IsClaimed, q.RefreshAt, q.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) insertAchievements(ctx context.Context, tx pgx.Tx, rows []domain.UserAchievement) error {
	const insert = `INSERT INTO user_achievements (tenant_id, user_id, achievement_id, unlocked_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (tenant_id, user_id, achievement_id) DO NOTHING`
	for _, a := range rows {
		if _, err := tx.Exec(ctx, insert, a.TenantID, a.UserID, a.AchievementID, a.UnlockedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) insertCommitEvents(ctx context.Context, tx pgx.Tx, commit domain.WorkoutCommit) error {
	session := commit.Session

	committed := events.WorkoutCommitted{
		WorkoutID:     session.ID,
		TenantID:      session.TenantID,
		UserID:        session.UserID,
		Date:          session.Date,
		Source:        string(session.Source),
		ExerciseIDs:   session.ExerciseIDs(),
		TotalSets:     session.TotalSets(),
		TotalVolumeLb: session.TotalVolume(),
		XPEarned:      commit.XPEarned,
		CommittedAt:   session.CreatedAt,
	}
	if err := insertOutbox(ctx, tx, session.TenantID, session.ID, "workout.committed", session.ID, committed); err != nil {
		return err
	}

	for _, rec := range commit.Records {
		payload := events.RecordSet{
			RecordID:   rec.ID,
			TenantID:   rec.TenantID,
			UserID:     rec.UserID,
			ExerciseID: rec.ExerciseID,
			PRType:     string(rec.Type),
			Value:      rec.Value,
			WeightLb:   rec.WeightLb,
			AchievedAt: rec.AchievedAt,
		}
		if err := insertOutbox(ctx, tx, rec.TenantID, session.ID, "record.set", rec.ID, payload); err != nil {
			return err
		}
	}

	advanced := events.ProgressAdvanced{
		TenantID:      commit.Progress.TenantID,
		UserID:        commit.Progress.UserID,
		TotalXP:       commit.Progress.TotalXP,
		Level:         commit.Progress.Level,
		Rank:          commit.Rank,
		CurrentStreak: commit.Progress.CurrentStreak,
		LeveledUp:     commit.LeveledUp,
		OccurredAt:    commit.Progress.UpdatedAt,
	}
	return insertOutbox(ctx, tx, commit.Progress.TenantID, session.ID, "progress.advanced", session.ID, advanced)
}

// CommitQuestClaim applies a claim under the same version discipline as
// workout commits.
func (r *Repository) CommitQuestClaim(ctx context.Context, claim domain.QuestClaim) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = setTenant(ctx, tx, claim.Progress.TenantID); err != nil {
		return err
	}
	if err = r.advanceProgress(ctx, tx, claim.Progress); err != nil {
		return err
	}
	if err = r.upsertQuests(ctx, tx, []domain.QuestState{claim.Quest}); err != nil {
		return err
	}

	advanced := events.ProgressAdvanced{
		TenantID:      claim.Progress.TenantID,
		UserID:        claim.Progress.UserID,
		TotalXP:       claim.Progress.TotalXP,
		Level:         claim.Progress.Level,
		CurrentStreak: claim.Progress.CurrentStreak,
		OccurredAt:    claim.Progress.UpdatedAt,
	}
	// One claim per quest period, so the period boundary scopes the dedupe.
	dedupe := fmt.Sprintf("%s:%s:claim:%d", claim.Progress.UserID, claim.Quest.QuestID, claim.Quest.RefreshAt.Unix())
	if err = insertOutbox(ctx, tx, claim.Progress.TenantID, claim.Progress.UserID, "progress.advanced", dedupe, advanced); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, tenantID, aggregateID, eventType, dedupeScope string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", dedupeScope, eventType)
	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		tenantID,
		"workout",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		fmt.Sprintf("%s:%s", tenantID, aggregateID),
		body,
		dedupeKey,
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"workout.committed": {
		Topic:         "workout_events",
		SchemaSubject: "workout_events-value",
	},
	"record.set": {
		Topic:         "record_events",
		SchemaSubject: "record_events-value",
	},
	"progress.advanced": {
		Topic:         "progress_events",
		SchemaSubject: "progress_events-value",
	},
}
