package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthSessionKey returns the cache key for a login session, keyed by JTI so
// the same user may hold several concurrent logins.
func (r *CacheKeyStruct) AuthSessionKey(jti string) string {
	return fmt.Sprintf("auth:session:%s", jti)
}

// ExamPayloadKey returns the cache key for an exam's cached paper payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID uuid.UUID) string {
	return fmt.Sprintf("exam:%s:payload", examID.String())
}

var CacheKey = NewCacheKeyStruct()
