// Package notify carries the payload-free "cart changed" signal.  Listeners
// never receive cart contents; on every signal they re-read storage.
package notify

import (
	"context"
	"sync"
)

// Notifier publishes and subscribes to change signals on named channels.
// Subscribe returns a channel that receives at least one value after any
// number of Publish calls (signals are coalesced) and a cancel function
// that must be called to release the subscription.
type Notifier interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (<-chan struct{}, func())
}

// TabChannel is the channel for changes visible to a single tab.
func TabChannel(tabID string) string { return "tab:" + tabID }

// VisitorChannel is the channel for changes visible to every tab of a visitor.
func VisitorChannel(visitorID string) string { return "visitor:" + visitorID }

// Bus is an in-process Notifier.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: map[string]map[int]chan struct{}{}}
}

// Publish signals every current subscriber of channel without blocking.
func (b *Bus) Publish(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- struct{}{}:
		default: // a signal is already pending
		}
	}
	return nil
}

func (b *Bus) Subscribe(_ context.Context, channel string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	if b.subs[channel] == nil {
		b.subs[channel] = map[int]chan struct{}{}
	}
	b.subs[channel][id] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[channel], id)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
		})
	}
	return ch, cancel
}

// Subscribers reports how many listeners channel has.
func (b *Bus) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}
