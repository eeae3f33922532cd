package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// VerifyCache remembers successful checks for a while so cookie
	// re-validation does not pay for a slow hash on every request.
	//
	// Entries are keyed by an HMAC of the credentials under a key that
	// only lives in this process; neither user ids nor passwords are
	// kept in memory in the clear. Failed checks are never cached.
	VerifyCache struct {
		store Store
		cache *bigcache.BigCache
		key   []byte
	}
)

// NewVerifyCache wraps store with a cache of successful checks that
// expire after ttl
func NewVerifyCache(store Store, ttl time.Duration) (*VerifyCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("verify cache ttl must be positive, got %v", ttl)
	}
	key := make([]byte, sha256.Size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("unable to generate verify cache key, cause %w", err)
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create verify cache, cause %w", err)
	}
	return &VerifyCache{
		store: store,
		cache: cache,
		key:   key,
	}, nil
}

func (v *VerifyCache) Check(userID, password string) bool {
	entry := v.entryKey(userID, password)
	if buf, err := v.cache.Get(entry); err == nil && len(buf) > 0 && buf[0] == 1 {
		return true
	}
	if !v.store.Check(userID, password) {
		return false
	}
	v.cache.Set(entry, []byte{1})
	return true
}

// Close releases the background cleanup goroutine
func (v *VerifyCache) Close() error {
	return v.cache.Close()
}

func (v *VerifyCache) entryKey(userID, password string) string {
	// length prefixed so no other (user, password) split yields the same input
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(userID)))
	mac := hmac.New(sha256.New, v.key)
	mac.Write(size[:])
	mac.Write([]byte(userID))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}
