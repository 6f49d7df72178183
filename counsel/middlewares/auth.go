package middlewares

import (
	"context"
	"net/http"
	"strings"

	"counsel/counsel/config"
	"counsel/counsel/sources/psql/dao"
	"counsel/counsel/utils/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const MemberEmailKey contextKey = "member_email"

// AuthMiddleware resolves the caller's member identity from either a
// bearer token (HS256, member_email claim) or the plain X-Member-Email
// header, and verifies the member exists in the registry. Both paths
// are kept so token-less internal callers keep working.
func AuthMiddleware(cfg config.Config, members *dao.MemberDAO) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := ""
			if auth := r.Header.Get("Authorization"); auth != "" {
				parts := strings.SplitN(auth, " ", 2)
				if len(parts) != 2 || parts[0] != "Bearer" {
					unauthorized(w)
					return
				}
				token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(cfg.JWTSecret), nil
				})
				if err != nil || !token.Valid {
					unauthorized(w)
					return
				}
				claims, ok := token.Claims.(jwt.MapClaims)
				if !ok {
					unauthorized(w)
					return
				}
				email, ok = claims["member_email"].(string)
				if !ok {
					unauthorized(w)
					return
				}
			} else {
				email = strings.TrimSpace(r.Header.Get("X-Member-Email"))
			}
			if email == "" {
				unauthorized(w)
				return
			}

			exists, err := members.ExistsByEmail(r.Context(), email)
			if err != nil {
				apperrors.WriteHTTP(w, err)
				return
			}
			if !exists {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), MemberEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	apperrors.WriteHTTP(w, apperrors.New(apperrors.KindUnauthorized, "member identity required"))
}
