package daemon

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/matheus3301/teamspace/internal/client"
	"github.com/matheus3301/teamspace/internal/config"
	"github.com/matheus3301/teamspace/internal/lock"
	"github.com/matheus3301/teamspace/internal/profile"
	"github.com/matheus3301/teamspace/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// setHome points the profile at a short temp dir so socket paths stay under
// the Unix socket length limit.
func setHome(t *testing.T) {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "ts-daemon-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv(profile.EnvHome, dir)
}

func testParams(backend string) Params {
	cfg := config.Default()
	cfg.Storage.Backend = backend
	cfg.Delivery.Delay = config.Duration{Duration: 20 * time.Millisecond}
	cfg.Log.Level = "warn"
	return Params{WorkspaceName: "test", Config: cfg}
}

func dial(t *testing.T, name string) *client.Client {
	t.Helper()
	c, err := client.New(profile.SocketPath(name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDaemonLifecycle(t *testing.T) {
	setHome(t)
	p := testParams(config.BackendFile)

	app := fxtest.New(t, Module(p), fx.NopLogger)
	app.RequireStart()

	c := dial(t, p.WorkspaceName)
	ctx := context.Background()

	st, err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", st.Workspace)
	assert.Equal(t, config.BackendFile, st.Backend)
	assert.Positive(t, st.Counts[string(workspace.Tasks)])

	var tasks []workspace.Task
	require.NoError(t, c.List(ctx, "tasks", &tasks))
	assert.Len(t, tasks, st.Counts[string(workspace.Tasks)])

	app.RequireStop()

	_, err = os.Stat(profile.SocketPath(p.WorkspaceName))
	assert.True(t, os.IsNotExist(err), "socket should be removed on stop")

	lk, err := lock.Acquire(profile.Dir(p.WorkspaceName))
	require.NoError(t, err, "lock should be released on stop")
	require.NoError(t, lk.Release())
}

func TestDaemonPersistsAcrossRestart(t *testing.T) {
	setHome(t)
	p := testParams(config.BackendSQLite)
	ctx := context.Background()

	app := fxtest.New(t, Module(p), fx.NopLogger)
	app.RequireStart()
	var created workspace.Task
	require.NoError(t, dial(t, p.WorkspaceName).Upsert(ctx, "tasks", map[string]any{"title": "Ship release notes"}, &created))
	app.RequireStop()

	app = fxtest.New(t, Module(p), fx.NopLogger)
	app.RequireStart()
	defer app.RequireStop()

	var tasks []workspace.Task
	require.NoError(t, dial(t, p.WorkspaceName).List(ctx, "tasks", &tasks))
	var found bool
	for _, task := range tasks {
		if task.ID == created.ID {
			found = true
			assert.Equal(t, "Ship release notes", task.Title)
		}
	}
	assert.True(t, found, "task %s not reloaded", created.ID)
}

func TestDaemonRedisBackend(t *testing.T) {
	setHome(t)
	mr := miniredis.RunT(t)
	p := testParams(config.BackendRedis)
	p.Config.Storage.RedisAddr = mr.Addr()

	app := fxtest.New(t, Module(p), fx.NopLogger)
	app.RequireStart()
	defer app.RequireStop()

	st, err := dial(t, p.WorkspaceName).GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.BackendRedis, st.Backend)
	assert.NotEmpty(t, mr.Keys(), "seeded collections should be written to redis")
}

func TestSecondDaemonRejectedByLock(t *testing.T) {
	setHome(t)
	p := testParams(config.BackendFile)

	app := fxtest.New(t, Module(p), fx.NopLogger)
	app.RequireStart()
	defer app.RequireStop()

	other := testParams(config.BackendFile)
	other.SocketPath = profile.SocketPath(p.WorkspaceName) + ".2"
	err := fx.New(Module(other), fx.NopLogger).Err()
	require.Error(t, err)
	var held *lock.LockHeldError
	assert.True(t, errors.As(err, &held), "got %v", err)
}

func TestUnknownBackend(t *testing.T) {
	setHome(t)
	p := testParams("etcd")
	err := fx.New(Module(p), fx.NopLogger).Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend "etcd"`)
}

func TestNilConfigUsesDefaults(t *testing.T) {
	setHome(t)
	app := fxtest.New(t, Module(Params{WorkspaceName: "defaults"}), fx.NopLogger)
	app.RequireStart()
	defer app.RequireStop()

	st, err := dial(t, "defaults").GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, st.Backend)
}
