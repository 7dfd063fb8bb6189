package room

import (
	"errors"
	"sync"
)

// ErrServerFull is returned when a new room would exceed the global cap
var ErrServerFull = errors.New("server full")

// Registry owns the code -> Room mapping. Rooms are created on the
// first join to a code and destroyed the moment their member set
// becomes empty; membership transitions are serialized here so a
// concurrent join cannot land in a room being torn down.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	maxRooms int
}

func NewRegistry(maxRooms int) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		maxRooms: maxRooms,
	}
}

// Join admits m into the room identified by code, creating the room if
// needed. Fails with ErrServerFull when the code is unseen and the
// registry is at capacity.
func (g *Registry) Join(code string, m Member) (*Room, Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, exists := g.rooms[code]
	if !exists {
		if len(g.rooms) >= g.maxRooms {
			return nil, Snapshot{}, ErrServerFull
		}
		rm = newRoom(code)
		g.rooms[code] = rm
	}

	return rm, rm.Join(m), nil
}

// Leave removes m from its room and returns the remaining member
// count. The room is dropped from the registry on the transition to
// zero members, with no grace period.
func (g *Registry) Leave(code string, m Member) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	rm, exists := g.rooms[code]
	if !exists {
		return 0
	}

	remaining := rm.Leave(m)
	if remaining == 0 {
		delete(g.rooms, code)
		go rm.Close()
	}
	return remaining
}

// Exists reports whether a room is currently registered under code
func (g *Registry) Exists(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, exists := g.rooms[code]
	return exists
}

// Count returns the number of active rooms
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}
