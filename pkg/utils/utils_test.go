package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWTManager_AccessToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	id := uuid.New()

	token, err := m.GenerateAccessToken(id, "owner@example.com", "Corner Shop")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != id || claims.Email != "owner@example.com" || claims.StoreName != "Corner Shop" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := NewJWTManager("other", time.Hour, time.Hour).ValidateAccessToken(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestJWTManager_TokenKindsAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	id := uuid.New()

	access, _ := m.GenerateAccessToken(id, "a@example.com", "Shop")
	refresh, _ := m.GenerateRefreshToken(id)

	if _, err := m.ValidateRefreshToken(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
	if _, err := m.ValidateAccessToken(refresh); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	got, err := m.ValidateRefreshToken(refresh)
	if err != nil || got != id {
		t.Fatalf("ValidateRefreshToken = %v, %v", got, err)
	}
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute, time.Hour)
	token, _ := m.GenerateAccessToken(uuid.New(), "a@example.com", "Shop")
	_, err := m.ValidateAccessToken(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("s3cret!", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
	if CheckPasswordHash("anything", "") {
		t.Fatal("empty hash must never match")
	}
}
