package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/config"
	"github.com/noah-isme/coursetrack-api/internal/database"
	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/service"
)

func TestWireBuildsWorkingGraph(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:bootstrap?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	cfg := config.Config{
		AppName:           "Test",
		JWTSecret:         "secret",
		JWTTTL:            time.Hour,
		QueuePrefix:       "ct",
		QueuePollInterval: time.Hour,
		OverdueInterval:   time.Hour,
		MailProvider:      "log",
		SeedEnabled:       true,
	}

	c, err := Wire(cfg, zerolog.New(io.Discard), db, client, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	result, err := c.Seed.SeedDemo(context.Background(), "")
	require.NoError(t, err)
	require.True(t, result.Created)

	resp, err := c.Auth.Login(context.Background(), dto.LoginRequest{Email: service.DemoManagerEmail, Password: service.DemoPassword})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	require.False(t, c.Worker.Status().IsRunning)
	c.Worker.Start()
	count, err := c.Worker.TriggerOverdueCheck(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 0)
	c.Worker.Stop()

	depths, err := c.Queue.Lengths(context.Background())
	require.NoError(t, err)
	require.Len(t, depths, 3)

	byName, err := c.QueueDepth(context.Background())
	require.NoError(t, err)
	require.Len(t, byName, 3)
	require.Contains(t, byName, "REMINDER")
	require.Equal(t, depths[models.NotificationReminder], byName["REMINDER"])
}
