package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "auth-test-secret"

func testModeAuth(t *testing.T, audience, issuer string) *Auth {
	t.Helper()
	t.Setenv(envIDPTestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	return NewAuth(nil, audience, issuer)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestIdentityFromBearerTestMode(t *testing.T) {
	auth := testModeAuth(t, "", "")
	token := signedToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"name":  "User One",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	id, err := auth.IdentityFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != "user-1" {
		t.Fatalf("expected sub user-1, got %q", id.ID)
	}
	if id.Email != "user@example.com" {
		t.Fatalf("expected email, got %q", id.Email)
	}
	if id.DisplayName != "User One" {
		t.Fatalf("expected display name, got %q", id.DisplayName)
	}
}

func TestIdentityFromBearerRejectsExpired(t *testing.T) {
	auth := testModeAuth(t, "", "")
	token := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := auth.IdentityFromBearer([]byte(token)); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestIdentityFromBearerRequiresSub(t *testing.T) {
	auth := testModeAuth(t, "", "")
	token := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := auth.IdentityFromBearer([]byte(token)); err == nil {
		t.Fatal("expected error for missing sub")
	}
}

func TestIdentityFromBearerRejectsBadSignature(t *testing.T) {
	auth := testModeAuth(t, "", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := auth.IdentityFromBearer([]byte(token)); err == nil {
		t.Fatal("expected error for wrong signing key")
	}
}

func TestIdentityFromBearerChecksAudienceAndIssuer(t *testing.T) {
	auth := testModeAuth(t, "taskticker", "https://idp.example.com/")

	token := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"aud": "someone-else",
		"iss": "https://idp.example.com/",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := auth.IdentityFromBearer([]byte(token)); err == nil {
		t.Fatal("expected error for wrong audience")
	}

	token = signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"aud": "taskticker",
		"iss": "https://rogue.example.com/",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := auth.IdentityFromBearer([]byte(token)); err == nil {
		t.Fatal("expected error for wrong issuer")
	}

	token = signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"aud": "taskticker",
		"iss": "https://idp.example.com/",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := auth.IdentityFromBearer([]byte(token)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIdentityFromAuthHeaderMissing(t *testing.T) {
	auth := testModeAuth(t, "", "")
	if _, err := auth.IdentityFromAuthHeader(""); err != errMissingAuthorization {
		t.Fatalf("expected errMissingAuthorization, got %v", err)
	}
}
