// hub.go
//
// Tour operations back-office data service
//
// This file is part of tourdesk.
// tourdesk is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// tourdesk is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with tourdesk.
// If not, see <https://www.gnu.org/licenses/>.

package stream

import (
	"context"
	"sync"
)

// Topic names for the collections the hub fans out change signals for.
const (
	TopicCompanies         = "companies"
	TopicPartners          = "partners"
	TopicGuests            = "guests"
	TopicItems             = "items"
	TopicProducts          = "products"
	TopicVehicleCategories = "vehicle-categories"
	TopicCurrencies        = "currencies"
	TopicSalesOrders       = "sales-orders"
	TopicAccommodations    = "accommodations"
	TopicUsers             = "users"
)

// Hub is a topic-keyed change broadcaster. Subscribers get a coalescing
// signal channel: a pending signal absorbs further publishes until drained,
// so slow subscribers never block writers and never miss that "something
// changed" since their last read.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan struct{}]struct{}
	mirror func(topic string)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe registers for change signals on topic. The returned channel is
// closed and unregistered when ctx is cancelled; it is the only teardown
// path, so every subscriber must hold a cancellable context.
func (h *Hub) Subscribe(ctx context.Context, topic string) <-chan struct{} {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan struct{}]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if set, ok := h.subs[topic]; ok {
			if _, registered := set[ch]; registered {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
	}()

	return ch
}

// Publish signals every subscriber of topic and mirrors the event to the
// NATS bridge when one is attached.
func (h *Hub) Publish(topic string) {
	h.fanout(topic)

	h.mu.RLock()
	mirror := h.mirror
	h.mu.RUnlock()
	if mirror != nil {
		mirror(topic)
	}
}

// fanout delivers the local signal only. The bridge uses this for incoming
// remote events so they are not re-mirrored.
func (h *Hub) fanout(topic string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default: // signal already pending
		}
	}
}

// setMirror attaches the cross-instance publish hook.
func (h *Hub) setMirror(fn func(topic string)) {
	h.mu.Lock()
	h.mirror = fn
	h.mu.Unlock()
}
