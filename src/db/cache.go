package db

import (
	"fmt"
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Read-side view cache. Every cached key is registered under the user it
// belongs to so a successful linking run (or a manual sync) can drop all
// of that user's views in one call.
var (
	Cache *ristretto.Cache

	userViewKeys = struct {
		sync.RWMutex
		m map[int64]map[string]struct{}
	}{m: make(map[int64]map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

func AccountViewKey(userID int64) string {
	return fmt.Sprintf("accounts:%d", userID)
}

func TransactionViewKey(userID int64, shareableID string) string {
	return fmt.Sprintf("transactions:%d:%s", userID, shareableID)
}

func SetUserView(userID int64, cacheKey string, value interface{}) {
	userViewKeys.Lock()
	if userViewKeys.m[userID] == nil {
		userViewKeys.m[userID] = make(map[string]struct{})
	}
	userViewKeys.m[userID][cacheKey] = struct{}{}
	userViewKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func GetUserView(cacheKey string) (interface{}, bool) {
	return Cache.Get(cacheKey)
}

// InvalidateUserViews drops every cached view for one user.
func InvalidateUserViews(userID int64) {
	userViewKeys.Lock()
	for key := range userViewKeys.m[userID] {
		Cache.Del(key)
	}
	delete(userViewKeys.m, userID)
	userViewKeys.Unlock()
}
