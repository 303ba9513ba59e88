// Package services contains the application services of the local node:
// accounts, capture, the image library, try-on generation and cloud sync.
// HTTP handlers and the CLI are thin layers over these.
package services

import (
	"context"

	"github.com/dmitrijs2005/closetsync/internal/jobs"
	"github.com/dmitrijs2005/closetsync/internal/models"
)

// Submitter runs fire-and-forget background work. *jobs.Pool satisfies it.
type Submitter interface {
	Submit(name string, task jobs.Task) error
}

// CloudAccounts is the account side of the cloud node API.
type CloudAccounts interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
}
