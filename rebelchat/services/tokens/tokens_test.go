package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret")
	tok, err := m.Generate(Identity{Sub: "sub-1", Email: "a@rebel.energy", Name: "Ada"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Sub != "sub-1" || id.Email != "a@rebel.energy" || id.Name != "Ada" {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestTokenExpiresAfter24h(t *testing.T) {
	m := NewManager("test-secret")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }
	tok, _ := m.Generate(Identity{Sub: "sub-1"})

	m.now = func() time.Time { return start.Add(23 * time.Hour) }
	if _, err := m.Verify(tok); err != nil {
		t.Fatalf("expected valid at 23h, got %v", err)
	}
	m.now = func() time.Time { return start.Add(25 * time.Hour) }
	if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken at 25h, got %v", err)
	}
}

func TestVerifyRejectsOtherSecretAndAlgorithm(t *testing.T) {
	tok, _ := NewManager("one").Generate(Identity{Sub: "s"})
	if _, err := NewManager("two").Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected wrong secret to fail, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "s", "exp": time.Now().Add(time.Hour).Unix()})
	raw, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := NewManager("one").Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected alg none to fail, got %v", err)
	}
}

func TestUnverifiedIdentity(t *testing.T) {
	idTok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cognito-sub", "email": "c@rebel.energy", "name": "Cy",
	})
	raw, _ := idTok.SignedString([]byte("cognito-does-not-share-this"))
	id, err := UnverifiedIdentity(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Sub != "cognito-sub" || id.Email != "c@rebel.energy" || id.Name != "Cy" {
		t.Errorf("unexpected identity %+v", id)
	}
	if _, err := UnverifiedIdentity("garbage"); err == nil {
		t.Error("expected error for malformed token")
	}
}
