// knoflo/controllers/auth.go
package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"knoflo/knoflo/config"
	"knoflo/knoflo/sources/psql/dao"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUsernameRequired = errors.New("username required")

type AuthController struct {
	userDAO *dao.UserDAO
	cfg     config.Config
}

func NewAuthController(userDAO *dao.UserDAO, cfg config.Config) *AuthController {
	return &AuthController{
		userDAO: userDAO,
		cfg:     cfg,
	}
}

// Login resolves username to an account, creating one on first sight, and
// returns a signed session token.
func (c *AuthController) Login(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrUsernameRequired
	}
	user, err := c.userDAO.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		// First login doubles as signup; the placeholder email sticks until
		// the profile is edited.
		user, err = c.userDAO.CreateUser(ctx, username, username+"@example.com", nil)
		if err != nil {
			return "", err
		}
	}
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.cfg.JWTSecret))
}
