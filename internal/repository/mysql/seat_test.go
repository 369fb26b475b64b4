package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

func startMySQL(t *testing.T) *SeatRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("onboarding"),
		tcmysql.WithUsername("onboarding"),
		tcmysql.WithPassword("onboarding"),
		tcmysql.WithScripts("../../../migrations/mysql/seating_space.sql"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for i := 0; i < 5; i++ {
		_, err := db.ExecContext(ctx, `INSERT INTO seating_space (seat_type) VALUES ('cabin'), ('cubicle')`)
		require.NoError(t, err)
	}
	return NewSeatRepository(db)
}

func TestSeatRepository(t *testing.T) {
	repo := startMySQL(t)
	ctx := context.Background()
	cabin := domain.SeatTypeCabin

	t.Run("concurrent claims never share a seat", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			claimed = map[int64]bool{}
		)
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				seat, err := repo.Claim(ctx, domain.SeatRequest{ThreadID: fmt.Sprintf("racer-%d", i), SeatType: &cabin})
				assert.NoError(t, err)
				if seat == nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				assert.False(t, claimed[seat.ID], "seat %d claimed twice", seat.ID)
				claimed[seat.ID] = true
			}(i)
		}
		wg.Wait()
		assert.Len(t, claimed, 5)
	})

	t.Run("existing claim is reused", func(t *testing.T) {
		first, err := repo.Claim(ctx, domain.SeatRequest{ThreadID: "alice-1"})
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, domain.SeatTypeCubicle, first.Type)

		again, err := repo.Claim(ctx, domain.SeatRequest{ThreadID: "alice-1"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("exhausted pool", func(t *testing.T) {
		seat, err := repo.Claim(ctx, domain.SeatRequest{ThreadID: "late", SeatType: &cabin})
		require.NoError(t, err)
		assert.Nil(t, seat)
	})
}
