package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/progression"
)

const sessionColumns = `workout_id, tenant_id, user_id, client_id, workout_date, duration_min, session_rpe, notes, source, created_at, updated_at, deleted_at`

// FindWorkoutByClientID implements the idempotency lookup. Soft-deleted
// sessions still count: a resubmitted client id must not create a second row.
func (r *Repository) FindWorkoutByClientID(ctx context.Context, tenantID, userID, clientID string) (*domain.WorkoutSession, error) {
	if clientID == "" {
		return nil, nil
	}
	const query = `SELECT ` + sessionColumns + ` FROM workout_sessions
        WHERE tenant_id=$1 AND user_id=$2 AND client_id=$3`
	return r.querySession(ctx, tenantID, query, tenantID, userID, clientID)
}

// GetWorkout returns one session with its exercises and sets, or nil.
func (r *Repository) GetWorkout(ctx context.Context, tenantID, workoutID string) (*domain.WorkoutSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM workout_sessions
        WHERE tenant_id=$1 AND workout_id=$2`
	return r.querySession(ctx, tenantID, query, tenantID, workoutID)
}

func (r *Repository) querySession(ctx context.Context, tenantID, query string, args ...interface{}) (*domain.WorkoutSession, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	session, err := scanSession(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	if err := r.loadExercises(ctx, tx, session); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func scanSession(row pgx.Row) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	var clientID *string
	if err := row.Scan(
		&session.ID, &session.TenantID, &session.UserID, &clientID,
		&session.Date, &session.DurationMinutes, &session.SessionRPE,
		&session.Notes, &session.Source, &session.CreatedAt, &session.UpdatedAt,
		&session.DeletedAt,
	); err != nil {
		return nil, err
	}
	if clientID != nil {
		session.ClientID = *clientID
	}
	return &session, nil
}

func (r *Repository) loadExercises(ctx context.Context, tx pgx.Tx, session *domain.WorkoutSession) error {
	const query = `SELECT exercise_row_id, exercise_id, order_index
        FROM workout_exercises WHERE workout_id=$1 ORDER BY order_index`
	rows, err := tx.Query(ctx, query, session.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ex domain.WorkoutExercise
		if err := rows.Scan(&ex.ID, &ex.ExerciseID, &ex.OrderIndex); err != nil {
			return err
		}
		session.Exercises = append(session.Exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	const setQuery = `SELECT set_id, set_number, weight_lb, reps, rpe, rir, e1rm, e1rm_stale
        FROM exercise_sets WHERE exercise_row_id=$1 ORDER BY set_number`
	for i := range session.Exercises {
		setRows, err := tx.Query(ctx, setQuery, session.Exercises[i].ID)
		if err != nil {
			return err
		}
		for setRows.Next() {
			var set domain.ExerciseSet
			if err := setRows.Scan(&set.ID, &set.SetNumber, &set.Weight, &set.Reps, &set.RPE, &set.RIR, &set.E1RM, &set.E1RMStale); err != nil {
				setRows.Close()
				return err
			}
			session.Exercises[i].Sets = append(session.Exercises[i].Sets, set)
		}
		if err := setRows.Err(); err != nil {
			setRows.Close()
			return err
		}
		setRows.Close()
	}
	return nil
}

// ListWorkouts returns live sessions newest first with keyset pagination.
// Listings skip per-set detail; GetWorkout loads the full aggregate.
func (r *Repository) ListWorkouts(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	args := []interface{}{tenantID, userID, limit}
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions
        WHERE tenant_id=$1 AND user_id=$2 AND deleted_at IS NULL`
	if cursor != nil {
		query += ` AND (workout_date, workout_id) < ($4, $5)`
		args = append(args, cursor.Date, cursor.ID)
	}
	query += ` ORDER BY workout_date DESC, workout_id DESC LIMIT $3`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.WorkoutSession, 0, limit)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{Date: last.Date, ID: last.ID}
	}
	return results, next, nil
}

// SoftDeleteWorkout hides the session from listings. Applied progression and
// records stay untouched, and the client id stays reserved.
func (r *Repository) SoftDeleteWorkout(ctx context.Context, tenantID, userID, workoutID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = setTenant(ctx, tx, tenantID); err != nil {
		return err
	}

	const stmt = `UPDATE workout_sessions SET deleted_at=NOW(), updated_at=NOW()
        WHERE tenant_id=$1 AND user_id=$2 AND workout_id=$3 AND deleted_at IS NULL`
	tag, err := tx.Exec(ctx, stmt, tenantID, userID, workoutID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		tx.Rollback(ctx)
		return domain.ErrWorkoutNotFound
	}
	return tx.Commit(ctx)
}

// GetProgress returns the progression row, or a zero row with Version 0 for
// users that have none yet.
func (r *Repository) GetProgress(ctx context.Context, tenantID, userID string) (domain.UserProgress, error) {
	progress := domain.UserProgress{
		TenantID:      tenantID,
		UserID:        userID,
		Level:         progression.LevelForXP(0),
		PolicyVersion: progression.DefaultPolicy.Version,
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return progress, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return progress, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return progress, err
	}

	const query = `SELECT total_xp, level, current_streak, longest_streak, last_workout_date, total_workouts, total_volume_lb, total_prs, policy_version, version, updated_at
        FROM user_progress WHERE tenant_id=$1 AND user_id=$2`
	err = tx.QueryRow(ctx, query, tenantID, userID).Scan(
		&progress.TotalXP, &progress.Level, &progress.CurrentStreak,
		&progress.LongestStreak, &progress.LastWorkoutDate, &progress.TotalWorkouts,
		&progress.TotalVolumeLb, &progress.TotalPRs, &progress.PolicyVersion,
		&progress.Version, &progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress, tx.Commit(ctx)
		}
		return progress, err
	}
	return progress, tx.Commit(ctx)
}

// BestRecords folds record history into per-exercise bests for detection.
// Records whose source session was soft deleted are excluded from the
// baseline so the same performance can set a PR again; ListRecords still
// returns the full history.
func (r *Repository) BestRecords(ctx context.Context, tenantID, userID string) (domain.Bests, error) {
	const query = `SELECT pr.exercise_id, pr.pr_type, pr.value, pr.weight_lb
        FROM personal_records pr
        JOIN workout_sessions ws ON ws.workout_id = pr.session_id AND ws.tenant_id = pr.tenant_id
        WHERE pr.tenant_id=$1 AND pr.user_id=$2 AND ws.deleted_at IS NULL`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bests := make(domain.Bests)
	for rows.Next() {
		var (
			exerciseID string
			prType     domain.PRType
			value      float64
			weightLb   float64
		)
		if err := rows.Scan(&exerciseID, &prType, &value, &weightLb); err != nil {
			return nil, err
		}
		entry := bests[exerciseID]
		switch prType {
		case domain.PRTypeE1RM:
			if value > entry.BestE1RM {
				entry.BestE1RM = value
			}
		case domain.PRTypeSessionVolume:
			if value > entry.BestVolume {
				entry.BestVolume = value
			}
		case domain.PRTypeRepMaxAtWeight:
			entry.RepMaxes = append(entry.RepMaxes, domain.WeightReps{WeightLb: weightLb, Reps: int(value)})
		}
		bests[exerciseID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bests, tx.Commit(ctx)
}

// ListRecords returns record history newest first, optionally scoped to one
// exercise.
func (r *Repository) ListRecords(ctx context.Context, tenantID, userID, exerciseID string) ([]domain.PersonalRecord, error) {
	args := []interface{}{tenantID, userID}
	query := `SELECT record_id, tenant_id, user_id, exercise_id, pr_type, value, weight_lb, session_id, achieved_at
        FROM personal_records WHERE tenant_id=$1 AND user_id=$2`
	if exerciseID != "" {
		query += ` AND exercise_id=$3`
		args = append(args, exerciseID)
	}
	query += ` ORDER BY achieved_at DESC, record_id DESC`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PersonalRecord, 0)
	for rows.Next() {
		var rec domain.PersonalRecord
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.UserID, &rec.ExerciseID, &rec.Type, &rec.Value, &rec.WeightLb, &rec.SessionID, &rec.AchievedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, tx.Commit(ctx)
}

// QuestStates returns the user's quest rows.
func (r *Repository) QuestStates(ctx context.Context, tenantID, userID string) ([]domain.QuestState, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	const query = `SELECT quest_id, progress, target_value, is_completed, is_claimed, refresh_at, updated_at
        FROM user_quests WHERE tenant_id=$1 AND user_id=$2 ORDER BY quest_id`
	rows, err := tx.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make([]domain.QuestState, 0)
	for rows.Next() {
		state := domain.QuestState{TenantID: tenantID, UserID: userID}
		if err := rows.Scan(&state.QuestID, &state.Progress, &state.TargetValue, &state.IsCompleted, &state.IsClaimed, &state.RefreshAt, &state.UpdatedAt); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, tx.Commit(ctx)
}

// Achievements returns the user's unlocked achievements.
func (r *Repository) Achievements(ctx context.Context, tenantID, userID string) ([]domain.UserAchievement, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	const query = `SELECT achievement_id, unlocked_at FROM user_achievements
        WHERE tenant_id=$1 AND user_id=$2 ORDER BY unlocked_at`
	rows, err := tx.Query(ctx, query, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unlocked := make([]domain.UserAchievement, 0)
	for rows.Next() {
		row := domain.UserAchievement{TenantID: tenantID, UserID: userID}
		if err := rows.Scan(&row.AchievementID, &row.UnlockedAt); err != nil {
			return nil, err
		}
		unlocked = append(unlocked, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return unlocked, tx.Commit(ctx)
}

// FindBodyweightByClientID implements the idempotency lookup for bodyweight.
func (r *Repository) FindBodyweightByClientID(ctx context.Context, tenantID, userID, clientID string) (*domain.BodyweightEntry, error) {
	if clientID == "" {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	const query = `SELECT entry_id, tenant_id, user_id, client_id, entry_date, weight_lb, source, created_at
        FROM bodyweight_entries WHERE tenant_id=$1 AND user_id=$2 AND client_id=$3`
	entry, err := scanBodyweight(tx.QueryRow(ctx, query, tenantID, userID, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}
	return entry, tx.Commit(ctx)
}

// CreateBodyweight appends an entry.
func (r *Repository) CreateBodyweight(ctx context.Context, entry domain.BodyweightEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = setTenant(ctx, tx, entry.TenantID); err != nil {
		return err
	}

	const stmt = `INSERT INTO bodyweight_entries (entry_id, tenant_id, user_id, client_id, entry_date, weight_lb, source, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = tx.Exec(ctx, stmt, entry.ID, entry.TenantID, entry.UserID, nullIfEmpty(entry.ClientID), entry.Date, entry.WeightLb, entry.Source, entry.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListBodyweight returns entries newest first.
func (r *Repository) ListBodyweight(ctx context.Context, tenantID, userID string, limit int) ([]domain.BodyweightEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	const query = `SELECT entry_id, tenant_id, user_id, client_id, entry_date, weight_lb, source, created_at
        FROM bodyweight_entries WHERE tenant_id=$1 AND user_id=$2
        ORDER BY entry_date DESC LIMIT $3`
	rows, err := tx.Query(ctx, query, tenantID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.BodyweightEntry, 0, limit)
	for rows.Next() {
		entry, err := scanBodyweight(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, tx.Commit(ctx)
}

func scanBodyweight(row pgx.Row) (*domain.BodyweightEntry, error) {
	var entry domain.BodyweightEntry
	var clientID *string
	if err := row.Scan(&entry.ID, &entry.TenantID, &entry.UserID, &clientID, &entry.Date, &entry.WeightLb, &entry.Source, &entry.CreatedAt); err != nil {
		return nil, err
	}
	if clientID != nil {
		entry.ClientID = *clientID
	}
	return &entry, nil
}

// GetProfile returns the profile or nil.
func (r *Repository) GetProfile(ctx context.Context, tenantID, userID string) (*domain.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	const query = `SELECT display_name, goal_weight_lb, preferred_unit, updated_at
        FROM user_profiles WHERE tenant_id=$1 AND user_id=$2`
	profile := domain.Profile{TenantID: tenantID, UserID: userID}
	err = tx.QueryRow(ctx, query, tenantID, userID).Scan(&profile.DisplayName, &profile.GoalWeightLb, &profile.PreferredUnit, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}
	return &profile, tx.Commit(ctx)
}

// UpsertProfile writes the whole profile row.
func (r *Repository) UpsertProfile(ctx context.Context, profile domain.Profile) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = setTenant(ctx, tx, profile.TenantID); err != nil {
		return err
	}

	const stmt = `INSERT INTO user_profiles (tenant_id, user_id, display_name, goal_weight_lb, preferred_unit, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (tenant_id, user_id) DO UPDATE SET
            display_name=EXCLUDED.display_name, goal_weight_lb=EXCLUDED.goal_weight_lb,
            preferred_unit=EXCLUDED.preferred_unit, updated_at=EXCLUDED.updated_at`
	_, err = tx.Exec(ctx, stmt, profile.TenantID, profile.UserID, profile.DisplayName, profile.GoalWeightLb, profile.PreferredUnit, profile.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListExerciseUsage returns the popularity projection for one tenant.
func (r *Repository) ListExerciseUsage(ctx context.Context, tenantID string) ([]domain.ExerciseUsage, error) {
	rows, err := r.pool.Query(ctx, `SELECT exercise_id, session_count, last_used_at
        FROM exercise_usage WHERE tenant_id=$1 ORDER BY session_count DESC, exercise_id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := make([]domain.ExerciseUsage, 0)
	for rows.Next() {
		var row domain.ExerciseUsage
		if err := rows.Scan(&row.ExerciseID, &row.SessionCount, &row.LastUsedAt); err != nil {
			return nil, err
		}
		usage = append(usage, row)
	}
	return usage, rows.Err()
}
