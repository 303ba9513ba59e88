package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/catalog/catalogtest"
	"github.com/dmitrijs2005/closetsync/internal/client/services"
	"github.com/dmitrijs2005/closetsync/internal/client/tryon"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/jobs"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/syncer"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stack struct {
	router  *gin.Engine
	catalog *catalog.Catalog
	store   *assets.FSStore
	auth    services.AuthService
	tracker *jobs.Tracker
}

type stubExporter struct{ err error }

func (s stubExporter) Export(context.Context, string) (*syncer.ExportResult, error) {
	return &syncer.ExportResult{}, s.err
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

// runNow executes background tasks on the caller's goroutine.
type runNow struct{}

func (runNow) Submit(_ string, task jobs.Task) error { return task(context.Background()) }

func newStack(t *testing.T, maxUpload int64) *stack {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewDiscardLogger()

	c, err := catalog.Open(ctx, "sqlite", catalogtest.SQLiteDSN(filepath.Join(t.TempDir(), "catalog.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	store, err := assets.NewFSStore(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pool := jobs.NewPool(2, 16, logger)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = pool.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	tracker := jobs.NewTracker(c.Jobs(c.DB), pool, logger)

	auth := services.NewAuthService(c, nil, runNow{}, "secret", time.Hour, logger)
	capture := services.NewCaptureService(c, store, tracker, services.CaptureOptions{
		FetchTimeout: time.Second, MaxBytes: 10 << 20, JobDelay: 10 * time.Millisecond,
	}, logger)
	library := services.NewLibraryService(c, store, logger)
	tryOn := services.NewTryOnService(c, store, tryon.Disabled{}, logger)
	sync := services.NewSyncService(c, stubExporter{}, tracker, stubPinger{}, nil, logger)

	router := NewRouter(RouterConfig{
		Auth:    NewAuthMiddleware(auth, auth),
		Account: NewAccountHandler(auth),
		Capture: NewCaptureHandler(capture, maxUpload),
		Library: NewLibraryHandler(library),
		TryOn:   NewTryOnHandler(tryOn),
		Sync:    NewSyncHandler(sync, logger),
		Status:  NewStatusHandler(library, sync),
		Logger:  logger,
	})

	return &stack{router: router, catalog: c, store: store, auth: auth, tracker: tracker}
}

// login registers username and returns its id and access token.
func (s *stack) login(t *testing.T, username string) (string, string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.auth.Register(ctx, username, username+"@example.test", []byte("pw"))
	require.NoError(t, err)
	user, token, err := s.auth.Login(ctx, username, []byte("pw"))
	require.NoError(t, err)
	return user.ID, token
}

func (s *stack) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return s.send(t, req, token)
}

func (s *stack) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if ct := rec.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type obj = map[string]any
