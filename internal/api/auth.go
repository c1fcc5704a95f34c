package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 12 * time.Hour

// AdminAuth admits requests carrying either the admin password in the
// X-Admin-Password header or a session token from POST /admin/auth in the
// Authorization header.
func AdminAuth(password string, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pw := r.Header.Get("X-Admin-Password"); pw != "" {
				if subtle.ConstantTimeCompare([]byte(pw), []byte(password)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid admin password")
				return
			}

			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "missing admin credentials")
				return
			}
			if err := verifySessionToken(auth[len(prefix):], secret); err != nil {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or expired session token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verifySessionToken(token string, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

type authRequest struct {
	Password string `json:"password"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func handleAdminAuth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(deps.AdminPassword)) != 1 {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid admin password")
			return
		}

		expires := time.Now().Add(sessionTTL)
		claims := jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(deps.JWTSecret)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to sign session token: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, authResponse{Token: token, ExpiresAt: expires})
	}
}
