package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Broker is an in-process pub/sub keyed by channel name. It feeds the SSE
// streams and the admin live socket.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded messages published
// on the given channel name.
func (b *Broker) Subscribe(channel string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan []byte]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber.
func (b *Broker) Unsubscribe(channel string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[channel], ch)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
	b.mu.Unlock()
}

// Publish sends raw data to all subscribers of the channel.
func (b *Broker) Publish(channel string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[channel] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Notify implements Notifier.
func (b *Broker) Notify(_ context.Context, channel string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Type, err)
	}
	b.Publish(channel, data)
	return nil
}

// Subscribers returns the number of subscribers of the channel.
func (b *Broker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}
