package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainerror "github.com/finance-tracker/summary/internal/domain/error"
)

const testSecret = "test-secret-key-for-integration-tests"

func TestTokenService_IssueAndValidate(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(testSecret, "", 0)

	token, err := svc.IssueAccessToken(ctx, "507f1f77bcf86cd799439011", "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if claims.UserID != "507f1f77bcf86cd799439011" {
		t.Errorf("expected user id to round-trip unchanged, got %q", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("expected email user@example.com, got %q", claims.Email)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Errorf("expected expiry in the future, got %s", claims.ExpiresAt)
	}
}

func TestTokenService_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(testSecret, "finance-tracker", 15*time.Minute).(*tokenService)

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.generateJWT("user-1", "", tokenTypeAccess, -time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, domainerror.ErrExpiredToken) {
			t.Errorf("expected ErrExpiredToken, got %v", err)
		}
	})

	t.Run("refresh token used as access token", func(t *testing.T) {
		token, err := svc.generateJWT("user-1", "", tokenTypeRefresh, time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, domainerror.ErrWrongTokenType) {
			t.Errorf("expected ErrWrongTokenType, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("another-secret", "finance-tracker", time.Hour)
		token, err := other.IssueAccessToken(ctx, "user-1", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, domainerror.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenService(testSecret, "someone-else", time.Hour)
		token, err := other.IssueAccessToken(ctx, "user-1", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, domainerror.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.ValidateAccessToken(ctx, "not.a.jwt"); !errors.Is(err, domainerror.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("subject used when user_id claim is absent", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":        "firebase-uid-42",
			"token_type": tokenTypeAccess,
			"iss":        "finance-tracker",
			"exp":        time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := svc.ValidateAccessToken(ctx, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.UserID != "firebase-uid-42" {
			t.Errorf("expected subject as user id, got %q", got.UserID)
		}
	})
}
