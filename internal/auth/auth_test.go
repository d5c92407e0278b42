package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"hu-tracker/internal/config"
)

func newTestService() *Service {
	return NewService(&config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
}

func TestHashPassword(t *testing.T) {
	svc := newTestService()

	password := "motdepasse123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == "" || hash == password {
		t.Errorf("unexpected hash %q", hash)
	}

	if err := svc.VerifyPassword(hash, password); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateToken(7, "admin@fpo.ma", "admin")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiry %v is not in the future", expiresAt)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "admin@fpo.ma" || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestValidateToken_HMACSurvivesRestart(t *testing.T) {
	token, _, err := newTestService().GenerateToken(1, "a@fpo.ma", "committee")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := newTestService().ValidateToken(token); err != nil {
		t.Errorf("token from an identical service rejected: %v", err)
	}

	other := NewService(&config.JWTConfig{Secret: "another-secret", Expiration: time.Hour})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateToken(1, "a@fpo.ma", "committee")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := newTestService().ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewService_ECKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	secret := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	svc := NewService(&config.JWTConfig{Secret: secret, Expiration: time.Hour})
	if svc.method.Alg() != "ES256" {
		t.Fatalf("expected ES256, got %s", svc.method.Alg())
	}

	token, _, err := svc.GenerateToken(3, "c@fpo.ma", "committee")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := svc.ValidateToken(token); err != nil {
		t.Errorf("Failed to validate ES256 token: %v", err)
	}
	if _, err := newTestService().ValidateToken(token); err == nil {
		t.Error("HS256 service accepted an ES256 token")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(16)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	b, _ := GenerateRandomToken(16)
	if a == b {
		t.Error("two random tokens are equal")
	}
}
