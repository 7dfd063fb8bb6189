package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(1000)
	a := &fakeMember{id: "a"}
	b := &fakeMember{id: "b"}

	assert.False(t, reg.Exists("ABC123"))
	assert.Zero(t, reg.Count())

	rm, snap, err := reg.Join("ABC123", a)
	assert.NoError(t, err)
	assert.True(t, reg.Exists("ABC123"))
	assert.Equal(t, 1, reg.Count())
	assert.Equal(t, 1, snap.Viewers)
	assert.Empty(t, snap.Queue)

	rm2, snap, err := reg.Join("ABC123", b)
	assert.NoError(t, err)
	assert.Same(t, rm, rm2)
	assert.Equal(t, 2, snap.Viewers)
	assert.Equal(t, 1, reg.Count())

	assert.Equal(t, 1, reg.Leave("ABC123", a))
	assert.True(t, reg.Exists("ABC123"))

	// room disappears exactly on the transition to zero members
	assert.Zero(t, reg.Leave("ABC123", b))
	assert.False(t, reg.Exists("ABC123"))
	assert.Zero(t, reg.Count())
}

func TestRegistryRejoinGetsFreshRoom(t *testing.T) {
	reg := NewRegistry(1000)
	a := &fakeMember{id: "a"}

	rm, _, err := reg.Join("ABC123", a)
	assert.NoError(t, err)
	rm.Enqueue(item("dQw4w9WgXcQ"), "alice")
	rm.SetPlaying(42, "alice", "")
	reg.Leave("ABC123", a)

	rm2, snap, err := reg.Join("ABC123", a)
	assert.NoError(t, err)
	assert.NotSame(t, rm, rm2)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Queue)
	assert.False(t, snap.Playing)
	assert.Zero(t, snap.Position)
}

func TestRegistryCapacity(t *testing.T) {
	reg := NewRegistry(2)
	a := &fakeMember{id: "a"}
	b := &fakeMember{id: "b"}

	_, _, err := reg.Join("AAAAAA", a)
	assert.NoError(t, err)
	_, _, err = reg.Join("BBBBBB", b)
	assert.NoError(t, err)

	_, _, err = reg.Join("CCCCCC", &fakeMember{id: "c"})
	assert.ErrorIs(t, err, ErrServerFull)

	// joining an existing room is still allowed at capacity
	_, snap, err := reg.Join("AAAAAA", &fakeMember{id: "d"})
	assert.NoError(t, err)
	assert.Equal(t, 2, snap.Viewers)

	// freeing a room frees capacity for a new code
	reg.Leave("BBBBBB", b)
	_, _, err = reg.Join("CCCCCC", &fakeMember{id: "c"})
	assert.NoError(t, err)
}

func TestRegistryLeaveUnknownRoom(t *testing.T) {
	reg := NewRegistry(2)
	assert.Zero(t, reg.Leave("ZZZZZZ", &fakeMember{id: "a"}))
}
