package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("onboarding"),
		tcpostgres.WithUsername("onboarding"),
		tcpostgres.WithPassword("onboarding"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(dsn, "file://../../../migrations"))

	db, err := Connect(ctx, dsn, 30, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestPostgres(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	t.Run("session checkpoint", func(t *testing.T) {
		store := NewSessionStore(db.Pool)

		s, err := store.LoadOrInit(ctx, "alice-1")
		require.NoError(t, err)
		assert.True(t, s.IsNew())

		s.Profile[domain.ProfileName] = "Alice Tran"
		s.Summary = "Alice joined."
		s.Append(domain.NewMessage(domain.RoleHuman, "Hi, my name is Alice Tran"))
		require.NoError(t, store.Checkpoint(ctx, s))
		assert.Equal(t, int64(1), s.Version)

		loaded, err := store.LoadOrInit(ctx, "alice-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), loaded.Version)
		assert.Equal(t, "Alice Tran", loaded.Profile[domain.ProfileName])
		assert.Equal(t, "Alice joined.", loaded.Summary)
		require.Len(t, loaded.Messages, 1)

		stale := loaded.Clone()
		loaded.Append(domain.NewMessage(domain.RoleAssistant, "Hello"))
		require.NoError(t, store.Checkpoint(ctx, loaded))

		stale.Append(domain.NewMessage(domain.RoleAssistant, "Hi"))
		assert.ErrorIs(t, store.Checkpoint(ctx, stale), domain.ErrCheckpointConflict)

		fresh := domain.NewSession("alice-1")
		assert.ErrorIs(t, store.Checkpoint(ctx, fresh), domain.ErrCheckpointConflict)
	})

	t.Run("concurrent claims never share a seat", func(t *testing.T) {
		repo := NewSeatRepository(db.Pool)
		cabin := domain.SeatTypeCabin

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			claimed = map[int64]string{}
			misses  int
		)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				threadID := fmt.Sprintf("racer-%d", i)
				seat, err := repo.Claim(ctx, domain.SeatRequest{ThreadID: threadID, SeatType: &cabin})
				assert.NoError(t, err)

				mu.Lock()
				defer mu.Unlock()
				if seat == nil {
					misses++
					return
				}
				assert.Equal(t, domain.SeatTypeCabin, seat.Type)
				_, dup := claimed[seat.ID]
				assert.False(t, dup, "seat %d claimed twice", seat.ID)
				claimed[seat.ID] = threadID
			}(i)
		}
		wg.Wait()

		assert.Len(t, claimed, 10)
		assert.Equal(t, 15, misses)

		// a thread asking again keeps its seat
		for id, threadID := range claimed {
			seat, err := repo.Claim(ctx, domain.SeatRequest{ThreadID: threadID, SeatType: &cabin})
			require.NoError(t, err)
			require.NotNil(t, seat)
			assert.Equal(t, id, seat.ID)
			break
		}
	})

	t.Run("peek does not reserve", func(t *testing.T) {
		repo := NewSeatRepository(db.Pool)
		cubicle := domain.SeatTypeCubicle

		seat, err := repo.Peek(ctx, domain.SeatRequest{SeatType: &cubicle})
		require.NoError(t, err)
		require.NotNil(t, seat)

		var claimedBy *string
		require.NoError(t, db.Pool.QueryRow(ctx,
			`SELECT claimed_by FROM onboarding.seating_space WHERE seat_id = $1`, seat.ID,
		).Scan(&claimedBy))
		assert.Nil(t, claimedBy)
	})

	t.Run("employee confirm attaches seat", func(t *testing.T) {
		employees := NewEmployeeRepository(db.Pool)
		seats := NewSeatRepository(db.Pool)
		cubicle := domain.SeatTypeCubicle

		got, err := employees.GetByThread(ctx, "carol-3")
		require.NoError(t, err)
		assert.Nil(t, got)

		seat, err := seats.Claim(ctx, domain.SeatRequest{ThreadID: "carol-3", SeatType: &cubicle})
		require.NoError(t, err)
		require.NotNil(t, seat)

		e := &domain.Employee{ThreadID: "carol-3"}
		require.NoError(t, e.UpdateField("name", "Carol"))
		require.NoError(t, e.UpdateField("email", "carol@example.com"))
		require.NoError(t, e.UpdateField("os_requirement", "linux"))
		require.NoError(t, employees.Save(ctx, e))
		require.NotNil(t, e.ID)

		n, err := seats.AttachEmployee(ctx, "carol-3", *e.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		loaded, err := employees.GetByThread(ctx, "carol-3")
		require.NoError(t, err)
		assert.Equal(t, "carol@example.com", loaded.Email)
		assert.Equal(t, "linux", loaded.OSRequirement)
		assert.Empty(t, loaded.Phone)
	})

	t.Run("schema file rolls back on failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.sql")
		script := "CREATE TABLE onboarding.bootstrap_probe (id int);\n" +
			"INSERT INTO onboarding.no_such_table VALUES (1);\n"
		require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

		_, err := db.ApplySchemaFile(ctx, path)
		require.Error(t, err)

		var exists bool
		require.NoError(t, db.Pool.QueryRow(ctx,
			`SELECT to_regclass('onboarding.bootstrap_probe') IS NOT NULL`,
		).Scan(&exists))
		assert.False(t, exists)

		require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE onboarding.bootstrap_probe (id int);"), 0o644))
		n, err := db.ApplySchemaFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("ping", func(t *testing.T) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		assert.NoError(t, db.Ping(pingCtx))

		var name string
		require.NoError(t, db.Pool.QueryRow(pingCtx, "SELECT current_setting('application_name')").Scan(&name))
		assert.Equal(t, applicationName, name)
	})
}
