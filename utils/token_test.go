package authUtils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestGenerateAndParseToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", "naagrik", time.Hour)
	token, err := issuer.GenerateToken("user-1", "a@x.com", "USER")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" || claims.Role != "USER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDefaultTTLIsSevenDays(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issuer := NewTokenIssuer("secret", "", 0)
	issuer.Now = func() time.Time { return now }

	token, err := issuer.GenerateToken("user-1", "a@x.com", "USER")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified() error = %v", err)
	}
	if got := claims.ExpiresAt - claims.IssuedAt; got != int64((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected 7 day validity, got %ds", got)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", "", time.Hour)
	issuer.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.GenerateToken("user-1", "a@x.com", "USER")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	issuer.Now = nil
	if _, err := issuer.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret", "", time.Hour).GenerateToken("user-1", "a@x.com", "USER")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := NewTokenIssuer("other", "", time.Hour).ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	token, err := NewTokenIssuer("secret", "someone-else", time.Hour).GenerateToken("user-1", "a@x.com", "USER")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := NewTokenIssuer("secret", "naagrik", time.Hour).ParseToken(token); err == nil {
		t.Fatal("expected token from another issuer to be rejected")
	}
}

func TestParseTokenRejectsMissingExpiry(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "user-1", "role": "ADMIN"})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := NewTokenIssuer("secret", "", time.Hour).ParseToken(signed); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestParseTokenRejectsUnsigned(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user-1",
		"role":   "ADMIN",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := NewTokenIssuer("secret", "", time.Hour).ParseToken(signed); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", "", time.Hour)
	for _, raw := range []string{"", "not-a-token", strings.Repeat("a.", 3)} {
		if _, err := issuer.ParseToken(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestMissingSecret(t *testing.T) {
	issuer := &TokenIssuer{TTL: time.Hour}
	if _, err := issuer.GenerateToken("user-1", "a@x.com", "USER"); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
