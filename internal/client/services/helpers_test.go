package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/assets"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/catalog/catalogtest"
	"github.com/dmitrijs2005/closetsync/internal/jobs"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/stretchr/testify/require"
)

type env struct {
	catalog *catalog.Catalog
	store   *assets.FSStore
	pool    *jobs.Pool
	tracker *jobs.Tracker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	c, err := catalog.Open(ctx, "sqlite", catalogtest.SQLiteDSN(filepath.Join(t.TempDir(), "catalog.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s, err := assets.NewFSStore(t.TempDir(), logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pool := jobs.NewPool(2, 16, logging.NewDiscardLogger())
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

	return &env{
		catalog: c,
		store:   s,
		pool:    pool,
		tracker: jobs.NewTracker(c.Jobs(c.DB), pool, logging.NewDiscardLogger()),
	}
}

func (e *env) addUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.catalog.Users(e.catalog.DB).Create(context.Background(), &models.User{
		ID: id, Username: id, Email: id + "@example.test", IsActive: true, CreatedAt: time.Now().UTC(),
	}))
}

// waitJob polls job id until it leaves processing.
func (e *env) waitJob(t *testing.T, id string) *models.Job {
	t.Helper()
	var job *models.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = e.tracker.Get(context.Background(), id)
		return err == nil && job.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// inline runs submitted tasks synchronously.
type inline struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (i *inline) Submit(name string, task jobs.Task) error {
	err := task(context.Background())
	i.mu.Lock()
	defer i.mu.Unlock()
	i.names = append(i.names, name)
	if err != nil {
		i.errs = append(i.errs, err)
	}
	return nil
}

// fakeCloud records account calls.
type fakeCloud struct {
	CloudAccounts

	registerErr error
	loginErr    error
	token       string

	lastRegister models.RegisterRequest
	lastLogin    string
}

func (f *fakeCloud) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.lastRegister = req
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.AuthResponse{Success: true, UserID: req.LocalUserID}, nil
}

func (f *fakeCloud) Login(_ context.Context, username, _ string) (*models.AuthResponse, error) {
	f.lastLogin = username
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{Success: true, Token: f.token}, nil
}
