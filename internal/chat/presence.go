package chat

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 24 * time.Hour

// leaveScript decrements a user's socket count and drops the field at zero, so a
// user stays online while any of their sockets is still in the room.
var leaveScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
end
return n
`)

// Presence tracks who is online in a room as the Redis hash presence_<room>,
// mapping user id to the number of joined sockets.
type Presence struct {
	rdb redis.Cmdable
}

func NewPresence(rdb redis.Cmdable) *Presence {
	return &Presence{rdb: rdb}
}

func presenceKey(room string) string { return "presence_" + room }

func (p *Presence) Add(ctx context.Context, room, userID string) error {
	key := presenceKey(room)
	pipe := p.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, userID, 1)
	pipe.Expire(ctx, key, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Remove releases one socket of userID.
func (p *Presence) Remove(ctx context.Context, room, userID string) error {
	return leaveScript.Run(ctx, p.rdb, []string{presenceKey(room)}, userID).Err()
}

// Online returns the sorted users with at least one socket in the room.
func (p *Presence) Online(ctx context.Context, room string) ([]string, error) {
	members, err := p.rdb.HKeys(ctx, presenceKey(room)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}
