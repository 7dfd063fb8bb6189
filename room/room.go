package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/labstack/gommon/log"

	"github.com/JackBinary/SyncStream/model"
	"github.com/JackBinary/SyncStream/pkg/media"
)

// MaxQueueLength caps the number of queued items per room
const MaxQueueLength = 50

// ErrQueueFull is returned by Enqueue when the queue is at capacity
var ErrQueueFull = errors.New("queue is full")

// Member is a connection currently joined to a room. Send must report
// delivery failures so dead members can be reaped.
type Member interface {
	ID() string
	Send(p []byte) error
}

// Snapshot is the room state handed to a joining member
type Snapshot struct {
	Current  *media.Item
	Queue    []*media.Item
	Playing  bool
	Position float64
	Viewers  int
}

// Room owns one room's queue, playback clock and member set. All
// state transitions happen under its mutex; broadcasts are handed to a
// single-worker pool so every member observes the same event order.
type Room struct {
	Code string

	mu         sync.Mutex
	queue      []*media.Item
	playing    bool
	position   float64
	lastUpdate time.Time
	members    map[string]Member
	closed     bool

	pool *workerpool.WorkerPool
}

func newRoom(code string) *Room {
	return &Room{
		Code:       code,
		lastUpdate: time.Now(),
		members:    make(map[string]Member),
		pool:       workerpool.New(1),
	}
}

// Join adds m to the member set and returns the state it should be
// initialized with
func (r *Room) Join(m Member) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID()] = m
	return r.snapshotLocked()
}

// Leave removes m and returns how many members remain
func (r *Room) Leave(m Member) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, m.ID())
	return len(r.members)
}

// Viewers returns the current member count
func (r *Room) Viewers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// QueueFull reports whether another item would exceed the queue cap
func (r *Room) QueueFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) >= MaxQueueLength
}

// Enqueue appends item and reports whether it became the queue head.
// A first item resets the playback clock and is load-signaled to all
// members; otherwise members get a queue update attributed to nick.
func (r *Room) Enqueue(item *media.Item, nick string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) >= MaxQueueLength {
		return false, ErrQueueFull
	}
	r.queue = append(r.queue, item)

	if len(r.queue) == 1 {
		r.position = 0
		r.playing = false
		r.lastUpdate = time.Now()
		r.broadcastLocked(model.NewLoad(item, r.queueCopyLocked()), "")
		return true, nil
	}

	r.broadcastLocked(model.NewQueueUpdate(r.queueCopyLocked(), nick), "")
	return false, nil
}

// Advance drops the queue head, resets the playback clock and
// load-signals the new head (or nil). Reports whether a head was
// dropped; an empty queue is left untouched.
func (r *Room) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) == 0 {
		return false
	}
	r.queue = r.queue[1:]
	r.position = 0
	r.playing = false
	r.lastUpdate = time.Now()

	var current *media.Item
	if len(r.queue) > 0 {
		current = r.queue[0]
	}
	r.broadcastLocked(model.NewLoad(current, r.queueCopyLocked()), "")
	return true
}

// SetPlaying starts playback at position on everyone but the
// originator
func (r *Room) SetPlaying(position float64, nick, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = true
	r.position = clamp(position)
	r.lastUpdate = time.Now()
	r.broadcastLocked(model.NewPlay(r.position, nick), excludeID)
}

// SetPaused pauses playback at position on everyone but the originator
func (r *Room) SetPaused(position float64, nick, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.position = clamp(position)
	r.lastUpdate = time.Now()
	r.broadcastLocked(model.NewPause(r.position, nick), excludeID)
}

// Seek moves the playback clock without touching the play flag
func (r *Room) Seek(position float64, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = clamp(position)
	r.lastUpdate = time.Now()
	r.broadcastLocked(model.NewSeek(r.position), excludeID)
}

// Broadcast fans v out to every member except excludeID ("" for
// nobody). Delivery failures mark members dead; they are removed
// silently once the pass completes.
func (r *Room) Broadcast(v interface{}, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(v, excludeID)
}

// Close rejects further broadcasts, drains pending ones and stops the
// delivery worker
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.pool.StopWait()
}

// broadcastLocked serializes v once and queues the fan-out on the
// room's delivery worker. Callers must hold r.mu; the recipient set is
// captured now so the event reaches exactly the members present at the
// time of the state change.
func (r *Room) broadcastLocked(v interface{}, excludeID string) {
	if r.closed {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Errorf("room %s: broadcast marshal: %v", r.Code, err)
		return
	}

	targets := make([]Member, 0, len(r.members))
	for id, m := range r.members {
		if id == excludeID {
			continue
		}
		targets = append(targets, m)
	}

	r.pool.Submit(func() {
		var dead []string
		for _, m := range targets {
			if err := m.Send(payload); err != nil {
				log.Infof("room %s: dropping member %s: %v", r.Code, m.ID(), err)
				dead = append(dead, m.ID())
			}
		}
		if len(dead) > 0 {
			r.reap(dead)
		}
	})
}

// reap silently removes members that failed delivery; their own
// connection teardown stays responsible for departure notices
func (r *Room) reap(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.members, id)
	}
}

func (r *Room) snapshotLocked() Snapshot {
	var current *media.Item
	if len(r.queue) > 0 {
		current = r.queue[0]
	}
	return Snapshot{
		Current:  current,
		Queue:    r.queueCopyLocked(),
		Playing:  r.playing,
		Position: r.position,
		Viewers:  len(r.members),
	}
}

func (r *Room) queueCopyLocked() []*media.Item {
	return append([]*media.Item{}, r.queue...)
}

func clamp(position float64) float64 {
	if position < 0 {
		return 0
	}
	return position
}
