package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key for an exam session's state.
func (r *CacheKeyStruct) SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// CandidateLoginKey returns the cache key for a candidate's active login.
func (r *CacheKeyStruct) CandidateLoginKey(candidateID string) string {
	return fmt.Sprintf("login:candidate:%s", candidateID)
}

// AdminLoginKey returns the cache key for an admin's active login.
func (r *CacheKeyStruct) AdminLoginKey(adminID string) string {
	return fmt.Sprintf("login:admin:%s", adminID)
}

var CacheKey = NewCacheKeyStruct()
