package cooldown

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGate(client), mr
}

func TestRedisGate_TryAcquire_FirstCallAcquires(t *testing.T) {
	gate, _ := newTestGate(t)

	assert.True(t, gate.TryAcquire(context.Background(), EmailKey("acc-1"), time.Minute))
}

func TestRedisGate_TryAcquire_SecondCallSuppressed(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	require.True(t, gate.TryAcquire(ctx, SMSKey("79851686043"), time.Minute))
	assert.False(t, gate.TryAcquire(ctx, SMSKey("79851686043"), time.Minute))
}

func TestRedisGate_TryAcquire_AfterWindowExpires(t *testing.T) {
	gate, mr := newTestGate(t)
	ctx := context.Background()

	require.True(t, gate.TryAcquire(ctx, SMSKey("79851686043"), time.Minute))

	mr.FastForward(61 * time.Second)

	assert.True(t, gate.TryAcquire(ctx, SMSKey("79851686043"), time.Minute))
}

func TestRedisGate_TryAcquire_ExactlyOneWinnerUnderRace(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	const callers = 32

	var acquired int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if gate.TryAcquire(ctx, EmailKey("acc-race"), time.Minute) {
				atomic.AddInt64(&acquired, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), acquired, "в пределах окна должен победить ровно один вызов")
}

func TestRedisGate_TryAcquire_DifferentKeysIndependent(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	assert.True(t, gate.TryAcquire(ctx, EmailKey("acc-1"), time.Minute))
	assert.True(t, gate.TryAcquire(ctx, SMSKey("79851686043"), time.Minute))
	assert.True(t, gate.TryAcquire(ctx, EmailKey("acc-2"), time.Minute))
}

func TestRedisGate_TryAcquire_FailsClosedWhenStoreDown(t *testing.T) {
	gate, mr := newTestGate(t)

	mr.Close()

	assert.False(t, gate.TryAcquire(context.Background(), EmailKey("acc-1"), time.Minute),
		"при недоступном хранилище гейт не должен пропускать отправку")
}
