package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/closetsync/internal/auth"
	"github.com/dmitrijs2005/closetsync/internal/catalog"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/models"
	"github.com/dmitrijs2005/closetsync/internal/timex"
	"github.com/google/uuid"
)

// AuthService manages local accounts and their link to the cloud node.
//
// Contract:
//   - Register: create a local account, then register it on the cloud node in the background.
//   - Login: verify credentials and issue an access token; fetch the cloud token in the background.
//   - Authenticate: resolve an access token to a user id.
//   - Profile: the user with its current image count.
//   - DefaultUser: the account anonymous captures belong to, created on first use.
type AuthService interface {
	Register(ctx context.Context, username, email string, password []byte) (*models.User, error)
	Login(ctx context.Context, username string, password []byte) (*models.User, string, error)
	Authenticate(token string) (string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	DefaultUser(ctx context.Context) (*models.User, error)
}

type authService struct {
	catalog   *catalog.Catalog
	cloud     CloudAccounts
	bg        Submitter
	secretKey []byte
	tokenTTL  time.Duration
	logger    logging.Logger

	defaultMu sync.Mutex
}

// NewAuthService wires an AuthService. cloud may be nil, which disables
// cloud registration and login.
func NewAuthService(c *catalog.Catalog, cloud CloudAccounts, bg Submitter, secretKey string, tokenTTL time.Duration, logger logging.Logger) AuthService {
	return &authService{
		catalog:   c,
		cloud:     cloud,
		bg:        bg,
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		logger:    logger.With("service", "auth"),
	}
}

func (s *authService) Register(ctx context.Context, username, email string, password []byte) (*models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || len(password) == 0 {
		return nil, common.Validationf("username, email and password are required")
	}
	if username == common.DefaultUserName {
		return nil, fmt.Errorf("%w: username is reserved", common.ErrorAlreadyExists)
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    timex.Now(),
	}
	if err := s.catalog.Users(s.catalog.DB).Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", username)

	if s.cloud != nil {
		req := models.RegisterRequest{Username: username, Email: email, Password: string(password), LocalUserID: user.ID}
		s.background(ctx, "cloud-register:"+user.ID, func(ctx context.Context) error {
			if _, err := s.cloud.Register(ctx, req); err != nil {
				return fmt.Errorf("cloud registration of %s: %w", req.LocalUserID, err)
			}
			s.logger.Info(ctx, "user registered on cloud node", "user_id", req.LocalUserID)
			return nil
		})
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, username string, password []byte) (*models.User, string, error) {
	users := s.catalog.Users(s.catalog.DB)

	user, err := users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", fmt.Errorf("%w: invalid username or password", common.ErrorUnauthorized)
		}
		return nil, "", err
	}
	if !user.IsActive || !auth.VerifyPassword(string(password), user.PasswordHash) {
		return nil, "", fmt.Errorf("%w: invalid username or password", common.ErrorUnauthorized)
	}

	now := timex.Now()
	if err := users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", err
	}
	user.LastLogin = &now

	token, err := auth.GenerateToken(user.ID, s.secretKey, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	if s.cloud != nil {
		userID, name, pw := user.ID, user.Username, string(password)
		s.background(ctx, "cloud-login:"+userID, func(ctx context.Context) error {
			resp, err := s.cloud.Login(ctx, name, pw)
			if err != nil {
				return fmt.Errorf("cloud login of %s: %w", userID, err)
			}
			return s.catalog.Users(s.catalog.DB).SetCloudToken(ctx, userID, resp.Token)
		})
	}
	return user, token, nil
}

func (s *authService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.secretKey)
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.User, error) {
	db := s.catalog.DB
	user, err := s.catalog.Users(db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	n, err := s.catalog.Images(db).Count(ctx, userID, category.Category(""))
	if err != nil {
		return nil, err
	}
	user.ImageCount = n
	return user, nil
}

func (s *authService) DefaultUser(ctx context.Context) (*models.User, error) {
	s.defaultMu.Lock()
	defer s.defaultMu.Unlock()

	users := s.catalog.Users(s.catalog.DB)
	user, err := users.GetByUsername(ctx, common.DefaultUserName)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:        uuid.NewString(),
		Username:  common.DefaultUserName,
		Email:     common.DefaultUserName + "@localhost",
		IsActive:  true,
		CreatedAt: timex.Now(),
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return users.GetByUsername(ctx, common.DefaultUserName)
		}
		return nil, err
	}
	s.logger.Info(ctx, "default user created", "user_id", user.ID)
	return user, nil
}

// background submits task, logging instead of failing when the pool
// refuses it.
func (s *authService) background(ctx context.Context, name string, task func(ctx context.Context) error) {
	if err := s.bg.Submit(name, task); err != nil {
		s.logger.Warn(ctx, "background task dropped", "task", name, "error", err)
	}
}
