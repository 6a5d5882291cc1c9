package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Event is the wire envelope for everything the server pushes.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub owns the presence registry: username -> newest live connection.
// All registry access goes through the run loop, so no locking. With a
// Redis client attached the hub also subscribes to per-user channels and
// delivers messages published by other workers to its local connections.
type Hub struct {
	rdb    *redis.Client
	logger *slog.Logger

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	deliveries chan *delivery
	lookups    chan lookupReq
	done       chan struct{}
}

type delivery struct {
	recipients []string
	payload    []byte
}

type lookupReq struct {
	username string
	reply    chan *Client
}

func NewHub(rdb *redis.Client, logger *slog.Logger) *Hub {
	h := &Hub{
		rdb:        rdb,
		logger:     logger,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan *delivery, 256),
		lookups:    make(chan lookupReq),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	if h.rdb != nil {
		pubsub := h.rdb.PSubscribe(context.Background(), "user:*")
		ch := pubsub.Channel()
		go func() {
			for msg := range ch {
				username := strings.TrimPrefix(msg.Channel, "user:")
				h.deliveries <- &delivery{recipients: []string{username}, payload: []byte(msg.Payload)}
			}
		}()
	}

	for {
		select {
		case c := <-h.register:
			// last connection wins; an older session for the same
			// username is replaced silently
			if old, ok := h.clients[c.username]; ok && old != c {
				close(old.send)
			}
			h.clients[c.username] = c
			h.logger.Debug("client registered", "username", c.username)
			h.broadcastOnline()
		case c := <-h.unregister:
			// only the current owner of the entry may remove it; a
			// replaced connection's late disconnect is a no-op
			if h.clients[c.username] == c {
				delete(h.clients, c.username)
				close(c.send)
				h.logger.Debug("client unregistered", "username", c.username)
				h.broadcastOnline()
			}
		case d := <-h.deliveries:
			for _, username := range d.recipients {
				c, ok := h.clients[username]
				if !ok {
					continue // offline, dropped
				}
				select {
				case c.send <- d.payload:
				default:
				}
			}
		case req := <-h.lookups:
			req.reply <- h.clients[req.username]
		case <-h.done:
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*Client)
			return
		}
	}
}

func (h *Hub) broadcastOnline() {
	online := lo.Keys(h.clients)
	payload, err := json.Marshal(Event{Event: "getOnlineUsers", Data: online})
	if err != nil {
		return
	}
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Lookup resolves a username to its live connection, nil when offline.
func (h *Hub) Lookup(username string) *Client {
	req := lookupReq{username: username, reply: make(chan *Client, 1)}
	h.lookups <- req
	return <-req.reply
}

// DeliverToUsers pushes an event to every recipient with a live
// connection; offline recipients are dropped. Publish and push failures
// are logged, never returned, so the triggering request cannot fail on
// delivery.
func (h *Hub) DeliverToUsers(ctx context.Context, recipients []string, event Event) {
	if len(recipients) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event failed", "err", err)
		return
	}
	if h.rdb != nil {
		// other workers' hubs pick this up via their subscriptions,
		// including our own
		for _, username := range recipients {
			if err := h.rdb.Publish(ctx, "user:"+username, payload).Err(); err != nil {
				h.logger.Error("publish failed", "username", username, "err", err)
			}
		}
		return
	}
	h.deliveries <- &delivery{recipients: recipients, payload: payload}
}

// Close tears down the registry and closes every connection's send
// channel.
func (h *Hub) Close() {
	close(h.done)
}
