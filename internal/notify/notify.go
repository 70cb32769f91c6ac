// Package notify broadcasts catalog changes between service instances over
// Redis pub/sub so every instance reloads its engine after an edit.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// DefaultChannel is the pub/sub channel used for catalog change events.
const DefaultChannel = "physiotrack:catalog.changed"

// Catalog change actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionReload = "reload"
)

// Event describes one catalog change.
type Event struct {
	Action     string `json:"action"`
	ExerciseID string `json:"exercise_id,omitempty"`
	// Origin identifies the publishing instance.
	Origin string `json:"origin"`
}

// Reloader reloads the exercise catalog.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Publisher sends catalog change events. A nil Publisher is a no-op.
type Publisher struct {
	client  *redis.Client
	channel string
	origin  string
}

// NewPublisher creates a Publisher for channel, tagging events with origin.
func NewPublisher(client *redis.Client, channel, origin string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel, origin: origin}
}

// Publish sends an event for action on the given exercise.
func (p *Publisher) Publish(ctx context.Context, action, exerciseID string) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(Event{Action: action, ExerciseID: exerciseID, Origin: p.origin})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// Subscriber reloads the catalog when another instance publishes a change.
type Subscriber struct {
	client   *redis.Client
	channel  string
	origin   string
	reloader Reloader
}

// NewSubscriber creates a Subscriber. Events tagged with origin are skipped
// since the local instance has already reloaded.
func NewSubscriber(client *redis.Client, channel, origin string, reloader Reloader) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{client: client, channel: channel, origin: origin, reloader: reloader}
}

// Run listens until ctx is canceled or the subscription closes.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Warnf("notify: close subscription: %s", err)
		}
	}()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	log.Infof("notify: subscribed to [%s]", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("notify: subscription channel closed")
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

// handle processes one event payload and reports whether it triggered a reload.
func (s *Subscriber) handle(ctx context.Context, payload string) bool {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Warnf("notify: drop malformed event: %s", err)
		return false
	}
	if ev.Origin != "" && ev.Origin == s.origin {
		return false
	}

	logger := log.WithFields(log.Fields{
		"action": ev.Action,
		"origin": ev.Origin,
	})
	if err := s.reloader.Reload(ctx); err != nil {
		logger.Errorf("notify: reload after event: %s", err)
		return false
	}
	logger.Debug("notify: catalog reloaded")
	return true
}
