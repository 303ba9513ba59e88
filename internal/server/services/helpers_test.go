package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/catalog/catalogtest"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type env struct {
	catalog *catalog.Catalog
	store   *assets.FSStore
	users   UserService
	sync    SyncService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	c, err := catalog.Open(ctx, "sqlite", catalogtest.SQLiteDSN(filepath.Join(t.TempDir(), "cloud.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store, err := assets.NewFSStore(t.TempDir(), logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := logging.NewDiscardLogger()
	users := NewUserService(c, secret, time.Hour, logger)
	return &env{
		catalog: c,
		store:   store,
		users:   users,
		sync:    NewSyncService(c, syncer.NewIngester(c, store, logger), users, logger),
	}
}

func (e *env) register(t *testing.T, localUserID, name string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), models.RegisterRequest{
		Username: name, Email: name + "@example.test", Password: "pw-" + name, LocalUserID: localUserID,
	})
	require.NoError(t, err)
	return u
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}
