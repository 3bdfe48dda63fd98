package cooldown

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayhub/stayhub-backend/internal/logger"
)

// DefaultWindow - окно кулдауна по умолчанию для повторных отправок.
const DefaultWindow = 60 * time.Second

// Ключи кулдауна. Email скоупится по id аккаунта, SMS - по номеру телефона
// (защита номера от заливки с разных аккаунтов).
const (
	emailKeyPrefix = "email-cooldown:"
	smsKeyPrefix   = "sms-cooldown:"
)

// Gate - атомарный TTL-ограничитель поверх разделяемого хранилища.
type Gate interface {
	// TryAcquire атомарно ставит маркер кулдауна на key, если его ещё нет.
	// true - маркер поставлен, отправлять можно; false - кулдаун активен
	// либо хранилище недоступно (fail closed).
	TryAcquire(ctx context.Context, key string, window time.Duration) bool
}

// RedisGate реализует Gate через SET NX EX: проверка и установка маркера -
// один атомарный запрос, гонка двух одновременных запросов исключена.
type RedisGate struct {
	client *redis.Client
}

// NewRedisGate создаёт гейт поверх клиента Redis.
func NewRedisGate(client *redis.Client) *RedisGate {
	return &RedisGate{client: client}
}

// TryAcquire реализует Gate.
func (g *RedisGate) TryAcquire(ctx context.Context, key string, window time.Duration) bool {
	if window <= 0 {
		window = DefaultWindow
	}

	acquired, err := g.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		// Хранилище недоступно: закрываемся, иначе сбой инфраструктуры
		// снял бы троттлинг и устроил шторм уведомлений.
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			}).Error("cooldown: хранилище недоступно, отправка подавлена")
		}
		return false
	}

	return acquired
}

// EmailKey возвращает ключ кулдауна писем для аккаунта.
func EmailKey(accountID string) string {
	return emailKeyPrefix + accountID
}

// SMSKey возвращает ключ кулдауна SMS для нормализованного номера.
func SMSKey(phoneDigits string) string {
	return smsKeyPrefix + phoneDigits
}
