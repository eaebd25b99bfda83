package config

import (
	"testing"

	"github.com/google/uuid"
)

func TestAuthSessionKey(t *testing.T) {
	got := CacheKey.AuthSessionKey("abc-123")
	want := "auth:session:abc-123"
	if got != want {
		t.Errorf("AuthSessionKey = %q, want %q", got, want)
	}
}

func TestExamPayloadKey(t *testing.T) {
	examID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	got := CacheKey.ExamPayloadKey(examID)
	want := "exam:11111111-2222-3333-4444-555555555555:payload"
	if got != want {
		t.Errorf("ExamPayloadKey = %q, want %q", got, want)
	}
}
