//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/liftlog/internal/domain"
)

func TestRepositoryCommitAndTenantIsolation(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("liftlog"),
		postgrescontainer.WithUsername("liftlog"),
		postgrescontainer.WithPassword("liftlog"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)

	tenantID := uuid.NewString()
	userID := uuid.NewString()
	now := time.Now().UTC()

	session := domain.WorkoutSession{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		UserID:   userID,
		ClientID: "client-1",
		Date:     now,
		Source:   domain.SourceManual,
		Exercises: []domain.WorkoutExercise{{
			ID:         uuid.NewString(),
			ExerciseID: "bench-press",
			OrderIndex: 0,
			Sets: []domain.ExerciseSet{
				{ID: uuid.NewString(), Weight: 225, Reps: 5, SetNumber: 1, E1RM: 262.5},
			},
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	commit := domain.WorkoutCommit{
		Session: session,
		Records: []domain.PersonalRecord{{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			UserID:     userID,
			ExerciseID: "bench-press",
			Type:       domain.PRTypeE1RM,
			Value:      262.5,
			SessionID:  session.ID,
			AchievedAt: now,
		}},
		Progress: domain.UserProgress{
			TenantID:      tenantID,
			UserID:        userID,
			TotalXP:       86,
			Level:         2,
			CurrentStreak: 1,
			LongestStreak: 1,
			TotalWorkouts: 1,
			TotalVolumeLb: 1125,
			TotalPRs:      1,
			PolicyVersion: "v1",
			Version:       0,
			UpdatedAt:     now,
		},
		XPEarned: 86,
		Rank:     "Iron",
	}

	require.NoError(t, repo.CommitWorkout(ctx, commit))

	// Idempotency lookup finds the session by client id.
	found, err := repo.FindWorkoutByClientID(ctx, tenantID, userID, "client-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, session.ID, found.ID)
	require.Len(t, found.Exercises, 1)
	require.Len(t, found.Exercises[0].Sets, 1)

	// The versioned progress row advanced to version 1; a stale re-commit
	// conflicts.
	progress, err := repo.GetProgress(ctx, tenantID, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), progress.Version)
	require.Equal(t, int64(86), progress.TotalXP)

	stale := commit
	stale.Session.ID = uuid.NewString()
	stale.Session.ClientID = "client-2"
	stale.Session.Exercises = nil
	stale.Records = nil
	err = repo.CommitWorkout(ctx, stale)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	// A rival commit reusing the client id maps the unique violation to the
	// duplicate sentinel so the engine can replay instead of failing.
	rival := commit
	rival.Session.ID = uuid.NewString()
	rival.Session.Exercises = nil
	rival.Records = nil
	rival.Progress.Version = 1
	err = repo.CommitWorkout(ctx, rival)
	require.ErrorIs(t, err, domain.ErrDuplicateClientID)

	// The commit queued outbox events.
	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Equal(t, 3, pending)

	// Another tenant cannot see the session through RLS.
	otherTenant, err := repo.GetWorkout(ctx, uuid.NewString(), session.ID)
	require.NoError(t, err)
	require.Nil(t, otherTenant)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
