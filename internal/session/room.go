package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"postbox/internal/metrics"
	"postbox/internal/models"
)

type participant struct {
	profile models.Profile
	client  *Client
}

// Room holds the live participants of one post box. A single mutex guards the
// participant map and is held for the whole of every join, leave, rename and
// broadcast, sends included. A stalled recipient therefore stalls the room.
// The participant count is mirrored outside the lock so listings never wait
// on a stalled room.
type Room struct {
	id     string
	name   string
	public bool
	log    *zap.Logger
	count  atomic.Int64

	mu           sync.Mutex
	nextID       int64
	participants map[int64]*participant
}

func NewRoom(id, name string, public bool, log *zap.Logger) *Room {
	if log == nil {
		log = zap.NewNop()
	}
	return &Room{
		id:           id,
		name:         name,
		public:       public,
		log:          log.With(zap.String("room", id)),
		participants: make(map[int64]*participant),
	}
}

func (r *Room) ID() string   { return r.id }
func (r *Room) Name() string { return r.name }
func (r *Room) Public() bool { return r.public }

// Join registers the participant and returns its connection id. Everyone,
// the newcomer included, receives the updated roster; the newcomer then gets
// its own display name.
func (r *Room) Join(profile models.Profile, c *Client) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.participants[id] = &participant{profile: profile, client: c}
	r.count.Add(1)
	metrics.ParticipantJoined()
	r.log.Info("participant joined",
		zap.Int64("conn", id),
		zap.String("user_name", profile.UserName),
		zap.Int("participants", len(r.participants)))

	r.broadcastLocked(models.NewUserListEnvelope(r.namesLocked()))
	r.sendLocked(id, r.participants[id], models.NewUserNameEnvelope(profile.UserName))
	return id
}

// Leave removes the participant if present. It does not notify anyone; the
// caller follows up with BroadcastUserList.
func (r *Room) Leave(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[id]; !ok {
		return
	}
	delete(r.participants, id)
	r.count.Add(-1)
	metrics.ParticipantLeft()
	r.log.Info("participant left", zap.Int64("conn", id), zap.Int("participants", len(r.participants)))
}

// Rename changes the display name of a participant and announces it with a
// system message. It reports whether the participant existed.
func (r *Room) Rename(id int64, newName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return false
	}
	oldName := p.profile.UserName
	p.profile.UserName = newName

	r.broadcastLocked(models.NewChatEnvelope(models.ChatMessage{
		Message:   fmt.Sprintf("User %s changed user name to %s", oldName, newName),
		Author:    models.SystemAuthor,
		CreatedAt: models.Now(),
	}))
	return true
}

// BroadcastChat relays a chat message as supplied by the sender.
func (r *Room) BroadcastChat(msg models.ChatMessage) {
	r.Broadcast(models.NewChatEnvelope(msg))
}

func (r *Room) BroadcastUserList() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(models.NewUserListEnvelope(r.namesLocked()))
}

func (r *Room) Broadcast(msg models.WSMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

func (r *Room) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Info does not take the room lock; Participants may trail an in-flight join
// or leave.
func (r *Room) Info() models.RoomInfo {
	return models.RoomInfo{ID: r.id, Name: r.name, Public: r.public, Participants: int(r.count.Load())}
}

// namesLocked returns the current display names in map iteration order.
func (r *Room) namesLocked() []string {
	return lo.MapToSlice(r.participants, func(_ int64, p *participant) string {
		return p.profile.UserName
	})
}

// broadcastLocked serializes once and sends to every participant in turn.
// Per-recipient failures are logged and skipped.
func (r *Room) broadcastLocked(msg models.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("encode envelope", zap.String("message_type", string(msg.MessageType)), zap.Error(err))
		return
	}
	for id, p := range r.participants {
		r.deliverLocked(id, p, msg.MessageType, payload)
	}
}

func (r *Room) sendLocked(id int64, p *participant, msg models.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("encode envelope", zap.String("message_type", string(msg.MessageType)), zap.Error(err))
		return
	}
	r.deliverLocked(id, p, msg.MessageType, payload)
}

func (r *Room) deliverLocked(id int64, p *participant, mt models.MessageType, payload []byte) {
	if err := p.client.Send(payload); err != nil {
		metrics.DeliveryFailed()
		r.log.Warn("send to participant failed", zap.Int64("conn", id), zap.Error(err))
		return
	}
	metrics.EnvelopeSent(string(mt))
}
