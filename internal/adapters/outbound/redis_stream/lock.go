package redis_stream

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PassLock is a SET NX lease shared by every process pointed at the same
// Redis, keeping collect and settle passes from overlapping.
type PassLock struct {
	client *redis.Client
}

func NewPassLock(client *redis.Client) *PassLock {
	return &PassLock{client: client}
}

func (l *PassLock) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("setnx %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishWait)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{name}, token).Err(); err != nil {
			telemetry.Warnf("redis_stream: release %s: %v", name, err)
		}
	}
	return release, true, nil
}
