package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, secret string, d time.Duration) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(secret, d)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return manager
}

func decodeSegment(t *testing.T, segment string) map[string]interface{} {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		t.Fatalf("failed to decode segment: %v", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal segment: %v", err)
	}
	return out
}

func TestNewJWTManager(t *testing.T) {
	manager := newTestManager(t, "test-secret", time.Hour)

	if string(manager.secretKey) != "test-secret" {
		t.Errorf("expected secretKey 'test-secret', got '%s'", manager.secretKey)
	}
	if manager.TokenDuration() != time.Hour {
		t.Errorf("expected tokenDuration 1h, got %v", manager.TokenDuration())
	}
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	if !errors.Is(err, ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}

func TestGenerateToken_ExpiryIsExactlyNowPlusTTL(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", 24*time.Hour)
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issuedAt }

	token, expiresAt, err := manager.GenerateToken("a@b.com", "Ann")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := issuedAt.Add(24 * time.Hour)
	if !expiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, expiresAt)
	}

	header := decodeSegment(t, strings.Split(token, ".")[0])
	if got := int64(header["exp"].(float64)); got != want.UnixMilli() {
		t.Errorf("expected header exp %d, got %d", want.UnixMilli(), got)
	}
	if header["alg"] != "HS256" {
		t.Errorf("expected HS256, got %v", header["alg"])
	}
}

func TestGenerateToken_PayloadIsExactlyEmailAndName(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", time.Hour)

	token, _, err := manager.GenerateToken("a@b.com", "Ann")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	payload := decodeSegment(t, parts[1])
	if len(payload) != 2 {
		t.Errorf("expected exactly two claims, got %v", payload)
	}
	if payload["email"] != "a@b.com" || payload["name"] != "Ann" {
		t.Errorf("unexpected claims %v", payload)
	}
}

func TestGenerateToken_DiffersAcrossInstants(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", time.Hour)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return at }

	first, _, err := manager.GenerateToken("a@b.com", "Ann")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at = at.Add(time.Millisecond)
	second, _, err := manager.GenerateToken("a@b.com", "Ann")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("tokens issued at different instants should differ")
	}
}

func TestValidateToken_Valid(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", time.Hour)

	token, _, err := manager.GenerateToken("test@example.com", "Test User")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error validating token: %v", err)
	}

	if claims.Email != "test@example.com" {
		t.Errorf("expected Email 'test@example.com', got '%s'", claims.Email)
	}
	if claims.Name != "Test User" {
		t.Errorf("expected Name 'Test User', got '%s'", claims.Name)
	}
}

func TestValidateToken_ExpiryBoundary(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", 24*time.Hour)
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issuedAt }

	token, _, err := manager.GenerateToken("a@b.com", "Ann")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	manager.now = func() time.Time { return issuedAt.Add(24*time.Hour - time.Millisecond) }
	if _, err := manager.ValidateToken(token); err != nil {
		t.Errorf("expected token valid just before expiry, got %v", err)
	}

	manager.now = func() time.Time { return issuedAt.Add(24*time.Hour + time.Millisecond) }
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired just after expiry, got %v", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", -time.Hour)

	token, _, err := manager.GenerateToken("test@example.com", "Test User")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = manager.ValidateToken(token)
	if err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	manager1 := newTestManager(t, "secret-key-1", time.Hour)
	manager2 := newTestManager(t, "secret-key-2", time.Hour)

	token, _, err := manager1.GenerateToken("test@example.com", "Test User")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = manager2.ValidateToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong signature, got %v", err)
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", time.Hour)

	_, err := manager.ValidateToken("not-a-valid-token")
	if err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestValidateToken_EmptyToken(t *testing.T) {
	manager := newTestManager(t, "test-secret-key", time.Hour)

	_, err := manager.ValidateToken("")
	if err == nil {
		t.Error("expected error for empty token")
	}
}
