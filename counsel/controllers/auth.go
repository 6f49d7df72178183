package controllers

import (
	"context"
	"strings"
	"time"

	"counsel/counsel/config"
	"counsel/counsel/sources/psql/dao"
	"counsel/counsel/utils/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

type AuthController struct {
	members *dao.MemberDAO
	cfg     config.Config
}

func NewAuthController(members *dao.MemberDAO, cfg config.Config) *AuthController {
	return &AuthController{members: members, cfg: cfg}
}

// Login issues a bearer token for a registered member. Members are
// created by the external registration flow, never here.
func (c *AuthController) Login(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperrors.New(apperrors.KindInvalidInput, "email is required")
	}
	exists, err := c.members.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", apperrors.New(apperrors.KindUnauthorized, "unknown member")
	}
	claims := jwt.MapClaims{
		"member_email": email,
		"exp":          time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.JWTSecret))
}
