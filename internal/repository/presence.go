package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceTTL 在线状态哈希过期时间
// 对局结束会主动清理，过期兜底防止泄漏
const presenceTTL = 2 * time.Hour

// PresenceRepository 玩家在线状态仓库
// 每个对局一个哈希: 字段为玩家 ID，值为 1/0
type PresenceRepository struct {
	client *redis.Client
}

// NewPresenceRepository 创建在线状态仓库
func NewPresenceRepository(client *redis.Client) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// presenceKey 对局在线状态的 Redis Key
func presenceKey(matchId string) string {
	return "match:presence:" + matchId
}

// Init 建局时初始化所有玩家为在线
func (r *PresenceRepository) Init(ctx context.Context, matchId string, playerIds []int64) error {
	key := presenceKey(matchId)

	fields := make(map[string]any, len(playerIds))
	for _, id := range playerIds {
		fields[strconv.FormatInt(id, 10)] = 1
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOnline 更新玩家在线状态
func (r *PresenceRepository) SetOnline(ctx context.Context, matchId string, playerId int64, online bool) error {
	value := 0
	if online {
		value = 1
	}

	return r.client.HSet(ctx, presenceKey(matchId), strconv.FormatInt(playerId, 10), value).Err()
}

// IsOnline 查询玩家是否在线
func (r *PresenceRepository) IsOnline(ctx context.Context, matchId string, playerId int64) (bool, error) {
	value, err := r.client.HGet(ctx, presenceKey(matchId), strconv.FormatInt(playerId, 10)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// Clear 对局结束时清理在线状态
func (r *PresenceRepository) Clear(ctx context.Context, matchId string) error {
	return r.client.Del(ctx, presenceKey(matchId)).Err()
}
