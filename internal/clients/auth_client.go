package clients

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
)

type AuthClient interface {
	Login(ctx context.Context, credentials domain.Credentials) (*domain.LoginResult, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, profile domain.User) (*domain.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	RefreshToken(ctx context.Context) (string, error)
	VerifyToken(ctx context.Context) error
}

type authClient struct {
	api *api.Client
	log *logrus.Logger
}

func NewAuthClient(apiClient *api.Client, logger *logrus.Logger) AuthClient {
	return &authClient{api: apiClient, log: logger}
}

func (c *authClient) Login(ctx context.Context, credentials domain.Credentials) (*domain.LoginResult, error) {
	c.log.Infof("AuthClient: Logging in user %s", credentials.Username)
	var result domain.LoginResult
	if err := c.api.Post(ctx, "/auth/login", credentials, &result); err != nil {
		c.log.Warnf("AuthClient: Login failed for user %s: %v", credentials.Username, err)
		return nil, err
	}
	return &result, nil
}

func (c *authClient) Logout(ctx context.Context) error {
	c.log.Info("AuthClient: Notifying server of logout")
	return c.api.Post(ctx, "/auth/logout", nil, nil)
}

func (c *authClient) Profile(ctx context.Context) (*domain.User, error) {
	c.log.Debugf("AuthClient: Fetching profile")
	var user domain.User
	if err := c.api.Get(ctx, "/auth/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *authClient) UpdateProfile(ctx context.Context, profile domain.User) (*domain.User, error) {
	c.log.Infof("AuthClient: Updating profile for %s", profile.Username)
	var user domain.User
	if err := c.api.Post(ctx, "/auth/profile", profile, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *authClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	c.log.Info("AuthClient: Changing password")
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}
	return c.api.Post(ctx, "/auth/change-password", body, nil)
}

func (c *authClient) RefreshToken(ctx context.Context) (string, error) {
	c.log.Debug("AuthClient: Refreshing token")
	var result struct {
		Token string `json:"token"`
	}
	if err := c.api.Post(ctx, "/auth/refresh", nil, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func (c *authClient) VerifyToken(ctx context.Context) error {
	c.log.Debug("AuthClient: Verifying token")
	return c.api.Get(ctx, "/auth/verify", nil)
}
