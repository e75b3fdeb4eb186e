package events

import (
	"sync"
)

// Topic names a class of layout event.
type Topic string

const (
	// TopicZoomChanged fires after a client's zoom level moved.
	TopicZoomChanged Topic = "zoom.changed"
	// TopicContentSwapped fires after the media index was replaced.
	TopicContentSwapped Topic = "content.swapped"
	// TopicLayoutResized fires when a client reports a new container size.
	TopicLayoutResized Topic = "layout.resized"
)

// Event is what subscribers receive.
type Event struct {
	Topic    Topic
	ClientID string // empty for broadcast events
	Payload  any
}

// Handler reacts to an event. Handlers run on the publisher's goroutine.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a topic based fan-out. Every Subscribe returns a disposer so a
// refreshed view can drop its old listeners instead of piling up new ones.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers handler for topic. The returned function removes it and
// is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, handler Handler) (dispose func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers ev to every current subscriber of ev.Topic.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[ev.Topic]))
	for i, s := range b.subs[ev.Topic] {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Count returns the number of live subscriptions for topic.
func (b *Bus) Count(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Group collects disposers so a view can tear down everything at once.
type Group struct {
	mu        sync.Mutex
	disposers []func()
}

// Add keeps dispose for a later Dispose call.
func (g *Group) Add(dispose func()) {
	g.mu.Lock()
	g.disposers = append(g.disposers, dispose)
	g.mu.Unlock()
}

// Dispose runs and forgets every collected disposer.
func (g *Group) Dispose() {
	g.mu.Lock()
	ds := g.disposers
	g.disposers = nil
	g.mu.Unlock()

	for _, d := range ds {
		d()
	}
}
