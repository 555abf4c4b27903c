package geolib

import (
	"encoding/json"
	"sync"
	"time"
)

// UsageStats collects statistics on how a provider of the resolver is
// used. It is safe for concurrent use.
type UsageStats struct {
	Name string

	mutex         sync.Mutex
	lastUpdated   time.Time
	lastUsed      time.Time
	successCount  uint64
	failureCount  uint64
	cacheHitCount uint64
	fallbackCount uint64
}

// Used marks a provider call.
func (u *UsageStats) Used(err error) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = now

	if err == nil {
		u.successCount++
	} else {
		u.failureCount++
	}
}

// CacheHit marks a lookup which was served from the cache.
func (u *UsageStats) CacheHit() {
	u.mutex.Lock()
	u.cacheHitCount++
	u.mutex.Unlock()
}

// Fallback marks a lookup which has returned a default location.
func (u *UsageStats) Fallback() {
	u.mutex.Lock()
	u.fallbackCount++
	u.mutex.Unlock()
}

// Updated marks a successful dataset update.
func (u *UsageStats) Updated() {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUpdated = now
}

func (u *UsageStats) MarshalJSON() ([]byte, error) {
	var lastUpdatedTime, lastUsedTime int64

	u.mutex.Lock()

	if !u.lastUpdated.IsZero() {
		lastUpdatedTime = u.lastUpdated.Unix()
	}

	if !u.lastUsed.IsZero() {
		lastUsedTime = u.lastUsed.Unix()
	}

	rawStruct := struct {
		Name          string `json:"name"`
		LastUpdated   int64  `json:"last_updated"`
		LastUsed      int64  `json:"last_used"`
		SuccessCount  uint64 `json:"success_count"`
		FailureCount  uint64 `json:"failure_count"`
		CacheHitCount uint64 `json:"cache_hit_count"`
		FallbackCount uint64 `json:"fallback_count"`
	}{
		Name:          u.Name,
		LastUpdated:   lastUpdatedTime,
		LastUsed:      lastUsedTime,
		SuccessCount:  u.successCount,
		FailureCount:  u.failureCount,
		CacheHitCount: u.cacheHitCount,
		FallbackCount: u.fallbackCount,
	}

	u.mutex.Unlock()

	return json.Marshal(&rawStruct)
}
