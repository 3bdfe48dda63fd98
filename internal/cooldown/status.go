package cooldown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayhub/stayhub-backend/internal/models"
)

const statusKeyPrefix = "sms-delivery-status:"

// Статусы живут сутки: их читает только ближайшее сохранение профиля.
const statusTTL = 24 * time.Hour

// StatusStore хранит эфемерный статус последней отправки кода на аккаунт.
type StatusStore interface {
	Set(ctx context.Context, accountID string, status models.CodeDeliveryStatus) error
	// Get возвращает статус или пустую строку, если записи нет.
	Get(ctx context.Context, accountID string) (models.CodeDeliveryStatus, error)
}

// RedisStatusStore реализует StatusStore в Redis.
type RedisStatusStore struct {
	client *redis.Client
}

// NewRedisStatusStore создаёт хранилище статусов.
func NewRedisStatusStore(client *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

// Set записывает статус последней отправки.
func (s *RedisStatusStore) Set(ctx context.Context, accountID string, status models.CodeDeliveryStatus) error {
	if err := s.client.Set(ctx, statusKeyPrefix+accountID, string(status), statusTTL).Err(); err != nil {
		return fmt.Errorf("cooldown: запись статуса доставки: %w", err)
	}
	return nil
}

// Get читает статус последней отправки.
func (s *RedisStatusStore) Get(ctx context.Context, accountID string) (models.CodeDeliveryStatus, error) {
	val, err := s.client.Get(ctx, statusKeyPrefix+accountID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("cooldown: чтение статуса доставки: %w", err)
	}
	return models.CodeDeliveryStatus(val), nil
}
