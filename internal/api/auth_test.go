package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAdminAuthIssuesToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(t, http.MethodPost, "/admin/auth", `{"password":"`+testPassword+`"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("auth = %d: %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	if until := time.Until(resp.ExpiresAt); until < 11*time.Hour || until > 13*time.Hour {
		t.Errorf("expires_at %v from now", until)
	}

	// The token admits admin requests as a Bearer credential.
	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec2 := httptest.NewRecorder()
	e.handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("settings with token = %d: %s", rec2.Code, rec2.Body.String())
	}
}

func TestAdminAuthWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodPost, "/admin/auth", `{"password":"guess"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d", rec.Code)
	}
	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error.Type != "authentication_error" {
		t.Errorf("error type = %q", resp.Error.Type)
	}
}

func TestAdminAuthMiddlewarePasswordHeader(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(t, http.MethodGet, "/admin/settings", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("with password header = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("X-Admin-Password", "guess")
	rec2 := httptest.NewRecorder()
	e.handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("with wrong password = %d", rec2.Code)
	}
}

func TestAdminAuthMiddlewareNoCredentials(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodGet, "/admin/settings", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestAdminAuthRejectsExpiredToken(t *testing.T) {
	e := newTestEnv(t)

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-12 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token = %d", rec.Code)
	}
}

func TestAdminAuthRejectsWrongSecret(t *testing.T) {
	e := newTestEnv(t)

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token = %d", rec.Code)
	}
}

func TestAdminAuthRejectsUnsignedToken(t *testing.T) {
	e := newTestEnv(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("alg=none token = %d", rec.Code)
	}
}

func TestAdminAuthMalformedBearer(t *testing.T) {
	e := newTestEnv(t)
	for _, header := range []string{"Bearer", "Basic abc", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/settings", strings.NewReader(""))
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q = %d", header, rec.Code)
		}
	}
}
