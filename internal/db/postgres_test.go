package db

import (
	"context"
	"os"
	"testing"
	"time"

	"wordrush/internal/config"
	"wordrush/internal/words"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Needs a docker daemon, so it only runs with WORDRUSH_PG_TESTS=1.
func TestPostgresWordRepo(t *testing.T) {
	if os.Getenv("WORDRUSH_PG_TESTS") != "1" {
		t.Skip("set WORDRUSH_PG_TESTS=1 to run postgres integration tests")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("wordrush"),
		tcpostgres.WithUsername("wordrush"),
		tcpostgres.WithPassword("wordrush"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.DatabaseDriver = "postgres"
	cfg.DatabaseURL = dsn
	conn, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	added, err := LoadWords(ctx, conn, []words.Entry{
		{Category: "city", Text: "Paris"},
		{Category: "city", Text: "Prague"},
		{Category: "country", Text: "Peru"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	repo := NewWordRepo(conn)
	counts, err := repo.LetterCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["P"]["city"])

	player := RoomPlayer{RoomID: "r1", Username: "alice", Role: "host", Status: "active", JoinedAt: time.Now()}
	require.NoError(t, conn.Create(&player).Error)
	dup := player
	dup.ID = 0
	assert.True(t, IsUniqueViolation(conn.Create(&dup).Error))
}
