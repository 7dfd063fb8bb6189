package ratelimit

import (
	"sync"
	"time"
)

// Rule holds the budget of a single action kind: at most Max
// admissions per sliding Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Action kinds with dedicated budgets
const (
	ActionMessage = "message"
	ActionQueue   = "queue"
	ActionConnect = "connect"
)

// DefaultRules returns the stock budgets: 10 messages per 10s,
// 5 queue adds per minute, 10 connections per minute.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		ActionMessage: {Max: 10, Window: 10 * time.Second},
		ActionQueue:   {Max: 5, Window: time.Minute},
		ActionConnect: {Max: 10, Window: time.Minute},
	}
}

// Limiter is a sliding-window admission counter keyed by
// (source, action). Safe for concurrent use.
type Limiter struct {
	mu    sync.Mutex
	rules map[string]Rule
	hits  map[string]map[string][]time.Time
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// New creates a Limiter with the given per-action rules and starts a
// janitor that evicts sources whose windows have fully expired.
func New(rules map[string]Rule) *Limiter {
	l := &Limiter{
		rules: rules,
		hits:  make(map[string]map[string][]time.Time),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go l.janitor(time.Minute)
	return l
}

// Allow reports whether source may perform action now and records the
// admission when it may. Actions without a configured rule are always
// admitted and never recorded.
func (l *Limiter) Allow(source, action string) bool {
	rule, limited := l.rules[action]
	if !limited {
		return true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	actions, exists := l.hits[source]
	if !exists {
		actions = make(map[string][]time.Time)
		l.hits[source] = actions
	}

	recent := actions[action][:0]
	for _, t := range actions[action] {
		if now.Sub(t) < rule.Window {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rule.Max {
		actions[action] = recent
		return false
	}

	actions[action] = append(recent, now)
	return true
}

// Close stops the janitor goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() {
		close(l.done)
	})
}

func (l *Limiter) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictExpired()
		}
	}
}

// evictExpired drops sources that have no admission left inside any
// window, keeping the hit map bounded by active traffic.
func (l *Limiter) evictExpired() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for source, actions := range l.hits {
		live := false
		for action, stamps := range actions {
			rule := l.rules[action]
			for _, t := range stamps {
				if now.Sub(t) < rule.Window {
					live = true
					break
				}
			}
			if live {
				break
			}
		}
		if !live {
			delete(l.hits, source)
		}
	}
}
