package redis

import (
	"time"

	"github.com/gofiber/storage/redis/v3"
	"github.com/wakequeue/wakequeue/internal/core/port"
)

type presenceCache struct {
	storage *redis.Storage
	ttl     time.Duration
}

// NewPresenceCache remembers "device observed" signals by normalized MAC
// for ttl, so agents can skip broadcasting at devices that just came up.
func NewPresenceCache(storage *redis.Storage, ttl time.Duration) port.PresenceCache {
	return &presenceCache{
		storage: storage,
		ttl:     ttl,
	}
}

func (c *presenceCache) MarkSeen(mac string) error {
	return c.storage.Set("seen:"+mac, []byte(time.Now().UTC().Format(time.RFC3339)), c.ttl)
}

func (c *presenceCache) Seen(mac string) (bool, error) {
	val, err := c.storage.Get("seen:" + mac)
	if err != nil {
		return false, err
	}
	return len(val) > 0, nil
}
