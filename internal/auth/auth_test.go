package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-enough")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret-enough") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("user-42", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("unexpected uid: %q", claims.UserID)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := SignJWT("user-42", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatalf("token accepted with wrong secret")
	}
}

func TestJWT_Expired(t *testing.T) {
	token, err := SignJWT("user-42", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "test-secret"); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestJWT_Garbage(t *testing.T) {
	if _, err := ParseJWT("not-a-token", "test-secret"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}
