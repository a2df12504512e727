package cache

import (
	"log"

	"vgw/internal/config"
)

// Store is the resumption-store surface the engine's resumption API calls.
// Every implementation must scrub locally held session material before the
// memory is reclaimed and must match session ids by exact byte equality.
type Store interface {
	Store(id, data []byte)
	Lookup(id []byte) ([]byte, bool)
	Evict(id []byte)
	Deinit()
}

// NewStore selects the resumption store for this process: Redis when
// configured (shared across gateway instances), otherwise the in-process
// database.
func NewStore(cfg *config.Config) Store {
	if cfg.RedisHost != "" {
		store, err := NewRedisStore(cfg.RedisHost, cfg.RedisPort, cfg.RedisUser, cfg.RedisPassword, cfg.CacheTTL)
		if err != nil {
			log.Printf("⚠️  Redis connection failed: %v", err)
			log.Println("💾 Falling back to in-memory resumption cache")
			return New(cfg.CacheCapacity)
		}
		log.Printf("💾 Using Redis resumption cache: %s:%s", cfg.RedisHost, cfg.RedisPort)
		return store
	}

	log.Println("💾 Using in-memory resumption cache")
	return New(cfg.CacheCapacity)
}
