package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"postbox/internal/models"
)

// Hub is the registry of rooms. Its lock is never held while a room lock is
// taken.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{rooms: make(map[string]*Room), log: log}
}

// Create registers an empty room under a fresh random id and returns the id.
func (h *Hub) Create(name string, public bool) string {
	id := uuid.New().String()
	room := NewRoom(id, name, public, h.log)

	h.mu.Lock()
	h.rooms[id] = room
	h.mu.Unlock()

	h.log.Info("room created", zap.String("room", id), zap.String("name", name), zap.Bool("public", public))
	return id
}

func (h *Hub) Get(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	return r, ok
}

// Lookup is Get with an ErrRoomNotFound error for unknown ids.
func (h *Hub) Lookup(id string) (*Room, error) {
	r, ok := h.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return r, nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Rooms returns a snapshot of every room sorted by name then id.
func (h *Hub) Rooms() []models.RoomInfo {
	h.mu.RLock()
	rooms := lo.Values(h.rooms)
	h.mu.RUnlock()

	infos := lo.Map(rooms, func(r *Room, _ int) models.RoomInfo { return r.Info() })
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// PublicRooms filters Rooms to the publicly listed ones.
func (h *Hub) PublicRooms() []models.RoomInfo {
	return lo.Filter(h.Rooms(), func(info models.RoomInfo, _ int) bool { return info.Public })
}
