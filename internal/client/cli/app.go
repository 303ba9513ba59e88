package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/client/services"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Services are the local node services the CLI drives.
type Services struct {
	Auth    services.AuthService
	Library services.LibraryService
	Capture services.CaptureService
	Sync    services.SyncService
}

type App struct {
	auth    services.AuthService
	library services.LibraryService
	capture services.CaptureService
	sync    services.SyncService

	userID   string
	userName string
	Mode     Mode

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(s Services) *App {
	return &App{
		auth:    s.Auth,
		library: s.Library,
		capture: s.Capture,
		sync:    s.Sync,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.userID != ""
}

// StartOnlineStatusWatcher probes the cloud node every interval until ctx
// is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probe, cancel := context.WithTimeout(ctx, 3*time.Second)
			reachable := a.sync.CloudReachable(probe)
			cancel()

			if reachable {
				a.setMode(ModeOnline)
			} else {
				a.setMode(ModeOffline)
			}

		case <-ctx.Done():
			return
		}
	}
}
