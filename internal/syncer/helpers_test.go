package syncer

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
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type node struct {
	catalog *catalog.Catalog
	store   *assets.FSStore
	dir     string
}

func newNode(t *testing.T) *node {
	t.Helper()
	ctx := context.Background()
	c, err := catalog.Open(ctx, "sqlite", catalogtest.SQLiteDSN(filepath.Join(t.TempDir(), "catalog.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	dir := t.TempDir()
	s, err := assets.NewFSStore(dir, logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return &node{catalog: c, store: s, dir: dir}
}

func (n *node) addUser(t *testing.T, id, localUserID string) {
	t.Helper()
	require.NoError(t, n.catalog.Users(n.catalog.DB).Create(context.Background(), &models.User{
		ID: id, Username: id, Email: id + "@example.test", LocalUserID: localUserID, IsActive: true, CreatedAt: at,
	}))
}

// capture stores a png under c and records it, returning the row.
func (n *node) capture(t *testing.T, userID, id string, c category.Category) models.Image {
	t.Helper()
	ctx := context.Background()
	data := pngBytes(t, 3, 2)
	name, err := n.store.Put(ctx, userID, c, data)
	require.NoError(t, err)

	img := models.Image{
		ID: id, UserID: userID, Filename: name, Category: c,
		ContextInfo: map[string]any{"source": "test"},
		FileSize:    int64(len(data)), Width: 3, Height: 2, SavedAt: at, Status: models.ImageStatusActive,
	}
	require.NoError(t, n.catalog.Images(n.catalog.DB).Insert(ctx, &img))
	return img
}

func (n *node) count(t *testing.T, table string) int {
	t.Helper()
	var c int
	require.NoError(t, n.catalog.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&c))
	return c
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// loopback delivers snapshots straight into an Ingester.
type loopback struct {
	ingester *Ingester
	err      error
	calls    int
	lastUser string
}

func (l *loopback) Push(ctx context.Context, userID, token string, snap *Snapshot) (*IngestResult, error) {
	l.calls++
	l.lastUser = userID
	if l.err != nil {
		return nil, l.err
	}
	return l.ingester.Ingest(ctx, userID, snap)
}
