// Package services contains the cloud node's business logic: accounts
// linked to local node users and ingestion of their sync snapshots.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/auth"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// UserService provides authentication-related operations:
//   - Register: create a cloud account, optionally linked to a local node user
//   - Login: verify credentials and mint an access token
//   - Authenticate: resolve an access token to a cloud user id
type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	Authenticate(token string) (string, error)
}

type userService struct {
	catalog   *catalog.Catalog
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logging.Logger
}

// NewUserService constructs a UserService signing tokens with secretKey.
func NewUserService(c *catalog.Catalog, secretKey string, tokenTTL time.Duration, logger logging.Logger) UserService {
	return &userService{
		catalog:   c,
		jwtSecret: []byte(secretKey),
		tokenTTL:  tokenTTL,
		logger:    logger.With("service", "users"),
	}
}

// Register creates the account. When req.LocalUserID is set the cloud id
// equals it, so both nodes agree on the user's identity; otherwise a new id
// is minted and the account links to itself. Username, email or id
// collisions yield common.ErrorAlreadyExists.
func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username, email := strings.TrimSpace(req.Username), strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, common.Validationf("username, email and password are required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.LocalUserID)
	if id == "" {
		id = uuid.NewString()
	}

	user := &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		LocalUserID:  id,
		IsActive:     true,
		CreatedAt:    timex.Now(),
	}
	if err := s.catalog.Users(s.catalog.DB).Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username, email or user id is taken", common.ErrorAlreadyExists)
		}
		return nil, err
	}

	s.logger.Info(ctx, "cloud user registered", "user_id", user.ID, "username", username)
	return user, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	users := s.catalog.Users(s.catalog.DB)

	user, err := users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
		}
		return nil, "", err
	}
	if !user.IsActive || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, "", fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)
	}

	now := timex.Now()
	if err := users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", err
	}
	user.LastLogin = &now

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

func (s *userService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}
