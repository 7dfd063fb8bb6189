package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rules map[string]Rule) (*Limiter, *time.Time) {
	l := New(rules)
	now := time.Now()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(map[string]Rule{"msg": {Max: 3, Window: 10 * time.Second}})
	defer l.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4", "msg"), "attempt %d should be admitted", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4", "msg"), "attempt over budget should be denied")
}

func TestDenialDoesNotConsumeSlot(t *testing.T) {
	l, now := newTestLimiter(map[string]Rule{"msg": {Max: 1, Window: 10 * time.Second}})
	defer l.Close()

	assert.True(t, l.Allow("1.2.3.4", "msg"))
	assert.False(t, l.Allow("1.2.3.4", "msg"))
	assert.False(t, l.Allow("1.2.3.4", "msg"))

	// once the single recorded admission expires, one slot frees
	*now = now.Add(10*time.Second + time.Millisecond)
	assert.True(t, l.Allow("1.2.3.4", "msg"))
}

func TestWindowSlides(t *testing.T) {
	l, now := newTestLimiter(map[string]Rule{"msg": {Max: 2, Window: 10 * time.Second}})
	defer l.Close()

	assert.True(t, l.Allow("1.2.3.4", "msg"))
	*now = now.Add(6 * time.Second)
	assert.True(t, l.Allow("1.2.3.4", "msg"))
	assert.False(t, l.Allow("1.2.3.4", "msg"))

	// first admission ages out, second is still inside the window
	*now = now.Add(5 * time.Second)
	assert.True(t, l.Allow("1.2.3.4", "msg"))
	assert.False(t, l.Allow("1.2.3.4", "msg"))
}

func TestSourcesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(map[string]Rule{"msg": {Max: 1, Window: 10 * time.Second}})
	defer l.Close()

	assert.True(t, l.Allow("1.2.3.4", "msg"))
	assert.False(t, l.Allow("1.2.3.4", "msg"))
	assert.True(t, l.Allow("5.6.7.8", "msg"))
}

func TestActionsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(map[string]Rule{
		"msg":   {Max: 1, Window: 10 * time.Second},
		"queue": {Max: 1, Window: time.Minute},
	})
	defer l.Close()

	assert.True(t, l.Allow("1.2.3.4", "msg"))
	assert.False(t, l.Allow("1.2.3.4", "msg"))
	assert.True(t, l.Allow("1.2.3.4", "queue"))
	assert.False(t, l.Allow("1.2.3.4", "queue"))
}

func TestUnknownActionAlwaysAdmitted(t *testing.T) {
	l, _ := newTestLimiter(DefaultRules())
	defer l.Close()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("1.2.3.4", "ping"))
	}
}

func TestEvictExpired(t *testing.T) {
	l, now := newTestLimiter(map[string]Rule{"msg": {Max: 5, Window: time.Second}})
	defer l.Close()

	l.Allow("1.2.3.4", "msg")
	l.Allow("5.6.7.8", "msg")

	*now = now.Add(2 * time.Second)
	l.Allow("5.6.7.8", "msg")
	l.evictExpired()

	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.hits["1.2.3.4"]
	assert.False(t, exists, "idle source should be evicted")
	_, exists = l.hits["5.6.7.8"]
	assert.True(t, exists, "active source should survive eviction")
}

func TestConcurrentAllow(t *testing.T) {
	l, _ := newTestLimiter(map[string]Rule{"msg": {Max: 50, Window: time.Minute}})
	defer l.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("1.2.3.4", "msg") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, admitted)
}
