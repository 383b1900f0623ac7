// Package events はTodoの変更通知を所有者ごとに配信します。
package events

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Type は変更の種類です。
type Type string

const (
	TodoCreated Type = "created"
	TodoUpdated Type = "updated"
	TodoToggled Type = "toggled"
	TodoDeleted Type = "deleted"
)

// Event は1件の変更通知です。
type Event struct {
	Type    Type      `json:"type"`
	TodoID  string    `json:"todo_id"`
	OwnerID string    `json:"-"`
	At      time.Time `json:"at"`
}

// Publisher は変更通知の送信側です。
type Publisher interface {
	Publish(e Event)
}

// Broker はプロセス内の pub/sub です。
// 購読者のバッファが一杯の場合、そのイベントは破棄されます。
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	buffer int
}

// NewBroker は新しいBrokerを作成します。
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{
		subs:   make(map[string]map[chan Event]struct{}),
		buffer: buffer,
	}
}

// Subscribe は ownerID のイベントを受け取るチャネルを返します。
// 返された関数で購読を解除するとチャネルは閉じられます。
func (b *Broker) Subscribe(ownerID string) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.subs[ownerID] == nil {
		b.subs[ownerID] = make(map[chan Event]struct{})
	}
	b.subs[ownerID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[ownerID], ch)
			if len(b.subs[ownerID]) == 0 {
				delete(b.subs, ownerID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish は e.OwnerID の購読者全員に送信します。ブロックしません。
func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[e.OwnerID] {
		select {
		case ch <- e:
		default:
			log.Warn("Dropping todo event for slow subscriber", "owner_id", e.OwnerID, "type", e.Type, "todo_id", e.TodoID)
		}
	}
}

// Subscribers は ownerID の購読者数を返します。
func (b *Broker) Subscribers(ownerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ownerID])
}
