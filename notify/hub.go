// Package notify pushes order status changes to WebSocket connections that
// subscribed to the order or its restaurant.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"food-ordering-api/events"

	log "github.com/sirupsen/logrus"
)

const (
	topicOrder      = "order"
	topicRestaurant = "restaurant"
)

func OrderTopic(id uint) string      { return topicOrder + ":" + strconv.FormatUint(uint64(id), 10) }
func RestaurantTopic(id uint) string { return topicRestaurant + ":" + strconv.FormatUint(uint64(id), 10) }

// ParseTopic splits "order:7" into its kind and id.
func ParseTopic(topic string) (kind string, id uint, err error) {
	kind, raw, ok := strings.Cut(topic, ":")
	if !ok || (kind != topicOrder && kind != topicRestaurant) {
		return "", 0, fmt.Errorf("unknown topic %q", topic)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return "", 0, fmt.Errorf("invalid id in topic %q", topic)
	}
	return kind, uint(n), nil
}

// Hub is the registry of live connections and their topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// unregister drops c from every topic and closes its send queue.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for topic := range c.topics {
		if subs := h.topics[topic]; subs != nil {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	c.topics = nil
	close(c.send)
}

func (h *Hub) subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	subs := h.topics[topic]
	if subs == nil {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
	c.topics[topic] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.topics[topic]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(c.topics, topic)
}

// Publish queues payload once for every connection subscribed to any of
// topics and returns how many connections it was queued for. Connections whose
// queue is full are disconnected.
func (h *Hub) Publish(payload []byte, topics ...string) int {
	h.mu.RLock()
	targets := make(map[*Client]struct{})
	for _, topic := range topics {
		for c := range h.topics[topic] {
			targets[c] = struct{}{}
		}
	}
	var slow []*Client
	delivered := 0
	for c := range targets {
		select {
		case c.send <- payload:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			log.WithField("remote", c.remote).Warn("dropping slow websocket client")
			h.drop(c)
		}
		h.mu.Unlock()
	}
	return delivered
}

// Subscribers counts the connections currently subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Connections counts the live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
}

// brokerTimeout caps how long a status change may wait on the broker.
const brokerTimeout = 2 * time.Second

// Dispatcher fans a status change out to WebSocket subscribers and the broker.
type Dispatcher struct {
	hub     *Hub
	broker  events.Publisher
	timeout time.Duration
}

func NewDispatcher(hub *Hub, broker events.Publisher) *Dispatcher {
	if broker == nil {
		broker = events.Nop{}
	}
	return &Dispatcher{hub: hub, broker: broker, timeout: brokerTimeout}
}

// OrderStatusChanged never fails the caller: delivery problems are logged.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, evt events.OrderStatusChanged) {
	payload, err := evt.Marshal()
	if err != nil {
		log.WithError(err).Error("encode status event")
		return
	}
	n := d.hub.Publish(payload, OrderTopic(evt.OrderID), RestaurantTopic(evt.RestaurantID))
	log.WithFields(log.Fields{"order_id": evt.OrderID, "status": evt.Status, "receivers": n}).Debug("status event fanned out")

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.broker.Publish(ctx, evt); err != nil {
		log.WithError(err).WithField("order_id", evt.OrderID).Warn("publish status event to broker")
	}
}
