package runtime

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"sort"
	"sync"
)

type Registry struct {
	mu            sync.RWMutex
	rooms         map[domain.RoomID]map[contract.SubscriptionKey]contract.EventSink
	subscriptions map[contract.SubscriptionKey]domain.RoomID // reverse index for Unsubscribe
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:         make(map[domain.RoomID]map[contract.SubscriptionKey]contract.EventSink),
		subscriptions: make(map[contract.SubscriptionKey]domain.RoomID),
	}
}

// GetSinksForRoom returns a snapshot of the sinks subscribed to a room,
// ordered by session then subscription id. Returns nil for an unknown room.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	keys := make([]contract.SubscriptionKey, 0, len(subscribers))
	for key := range subscribers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SessionID != keys[j].SessionID {
			return keys[i].SessionID < keys[j].SessionID
		}
		return keys[i].SubscriptionID < keys[j].SubscriptionID
	})
	sinks := make([]contract.EventSink, len(keys))
	for i, key := range keys {
		sinks[i] = subscribers[key]
	}
	return sinks
}

// Subscribe attaches a sink to a room. Reusing a key moves the subscription
// to the new room and sink.
func (r *Registry) Subscribe(key contract.SubscriptionKey, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(key)
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[contract.SubscriptionKey]contract.EventSink)
	}
	r.rooms[roomID][key] = sink
	r.subscriptions[key] = roomID
}

func (r *Registry) Unsubscribe(key contract.SubscriptionKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(key)
}

// UnsubscribeSession drops every subscription a closed connection left behind.
func (r *Registry) UnsubscribeSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.subscriptions {
		if key.SessionID == sessionID {
			r.remove(key)
		}
	}
}

// remove expects the write lock held. Empty rooms are deleted so the map does not grow forever.
func (r *Registry) remove(key contract.SubscriptionKey) {
	roomID, ok := r.subscriptions[key]
	if !ok {
		return
	}
	delete(r.subscriptions, key)
	if subscribers, ok := r.rooms[roomID]; ok {
		delete(subscribers, key)
		if len(subscribers) == 0 {
			delete(r.rooms, roomID)
		}
	}
}
