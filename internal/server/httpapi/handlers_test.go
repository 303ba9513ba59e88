package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/catalog/catalogtest"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/server/services"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type obj = map[string]any

func newRouter(t *testing.T, maxSyncBytes int64) (*gin.Engine, *assets.FSStore) {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewDiscardLogger()

	c, err := catalog.Open(ctx, "sqlite", catalogtest.SQLiteDSN(filepath.Join(t.TempDir(), "cloud.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store, err := assets.NewFSStore(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users := services.NewUserService(c, "secret", time.Hour, logger)
	sync := services.NewSyncService(c, syncer.NewIngester(c, store, logger), users, logger)
	return NewRouter(NewHandler(users, sync, maxSyncBytes), logger), store
}

func send(t *testing.T, r http.Handler, method, path, token string, body any) (int, obj) {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out obj
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func register(t *testing.T, r http.Handler, name, localUserID string) {
	t.Helper()
	code, body := send(t, r, http.MethodPost, "/api/register", "", models.RegisterRequest{
		Username: name, Email: name + "@example.test", Password: "pw", LocalUserID: localUserID,
	})
	require.Equal(t, http.StatusOK, code, body)
}

func snapshot(t *testing.T) (*syncer.Snapshot, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	data := buf.Bytes()
	return &syncer.Snapshot{
		Images: []models.Image{{
			ID: "img-1", Filename: "subject_1.png", Category: category.Subject,
			FileSize: int64(len(data)), Width: 2, Height: 2, SavedAt: time.Now().UTC(),
		}},
		ImageFiles:    map[string]string{"subject_1.png": assets.EncodeDataURL("image/png", data)},
		SyncTimestamp: time.Now().UTC(),
	}, data
}

func TestStatus(t *testing.T) {
	r, _ := newRouter(t, 0)

	code, body := send(t, r, http.MethodGet, "/api/status", "", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRegister(t *testing.T) {
	r, _ := newRouter(t, 0)

	code, body := send(t, r, http.MethodPost, "/api/register", "", obj{
		"username": "alice", "email": "alice@example.test", "password": "pw", "local_user_id": "local-1",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "local-1", body["cloud_user_id"])

	code, body = send(t, r, http.MethodPost, "/api/register", "", obj{
		"username": "alice", "email": "other@example.test", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	code, _ = send(t, r, http.MethodPost, "/api/register", "", obj{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = send(t, r, http.MethodPost, "/api/register", "", "not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogin(t *testing.T) {
	r, _ := newRouter(t, 0)
	register(t, r, "alice", "local-1")

	code, body := send(t, r, http.MethodPost, "/api/login", "", obj{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, code, body)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "local-1", body["user_id"])

	code, body = send(t, r, http.MethodPost, "/api/login", "", obj{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = send(t, r, http.MethodPost, "/api/login", "", obj{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSync(t *testing.T) {
	r, store := newRouter(t, 0)
	register(t, r, "alice", "local-1")
	snap, data := snapshot(t)

	_, login := send(t, r, http.MethodPost, "/api/login", "", obj{"username": "alice", "password": "pw"})
	token := login["token"].(string)

	code, body := send(t, r, http.MethodPost, "/api/sync/user/local-1", token, snap)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["images_synced"])
	assert.Equal(t, "completed", body["status"])
	assert.NotEmpty(t, body["sync_id"])

	got, c, err := store.Get(context.Background(), "local-1", "subject_1.png", category.Subject)
	require.NoError(t, err)
	assert.Equal(t, category.Subject, c)
	assert.Equal(t, data, got)

	t.Run("same snapshot twice", func(t *testing.T) {
		code, body := send(t, r, http.MethodPost, "/api/sync/user/local-1", "", snap)
		require.Equal(t, http.StatusOK, code, body)
		assert.EqualValues(t, 1, body["images_synced"])
	})

	t.Run("unregistered user", func(t *testing.T) {
		code, body := send(t, r, http.MethodPost, "/api/sync/user/ghost", "", snap)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Contains(t, body["error"], "not registered")
	})

	t.Run("no data", func(t *testing.T) {
		code, body := send(t, r, http.MethodPost, "/api/sync/user/local-1", "", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "no sync data received", body["error"])
	})

	t.Run("bad token", func(t *testing.T) {
		code, _ := send(t, r, http.MethodPost, "/api/sync/user/local-1", "garbage", snap)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestSync_TooLarge(t *testing.T) {
	r, _ := newRouter(t, 64)
	register(t, r, "alice", "local-1")
	snap, _ := snapshot(t)

	code, _ := send(t, r, http.MethodPost, "/api/sync/user/local-1", "", snap)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
}

func TestSyncStatus(t *testing.T) {
	r, _ := newRouter(t, 0)
	register(t, r, "alice", "local-1")
	snap, _ := snapshot(t)

	code, body := send(t, r, http.MethodGet, "/api/user/local-1/sync/status", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["sync_history"])

	for range 6 {
		code, _ := send(t, r, http.MethodPost, "/api/sync/user/local-1", "", snap)
		require.Equal(t, http.StatusOK, code)
	}

	code, body = send(t, r, http.MethodGet, "/api/user/local-1/sync/status", "", nil)
	require.Equal(t, http.StatusOK, code)
	history := body["sync_history"].([]any)
	assert.Len(t, history, services.HistoryLimit)
	assert.Equal(t, "ingest", history[0].(obj)["sync_type"])

	code, _ = send(t, r, http.MethodGet, "/api/user/ghost/sync/status", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.Validationf("x"), http.StatusBadRequest},
		{common.ErrorAlreadyExists, http.StatusBadRequest},
		{common.ErrTokenExpired, http.StatusUnauthorized},
		{common.ErrorUnregisteredRemoteUser, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.err.Error(), " ", "_"), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
