// Package notify publishes catalog lifecycle events so downstream
// consumers learn about newly confirmed stores without polling the API.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
)

// PubSub implements catalog.Publisher on Google Cloud Pub/Sub. Topic
// handles are created lazily and reused.
type PubSub struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSub connects a Pub/Sub client for the project. Authentication uses
// Application Default Credentials.
func NewPubSub(ctx context.Context, projectID string) (*PubSub, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id is required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &PubSub{client: client, topics: make(map[string]*pubsub.Topic)}, nil
}

// Publish marshals the payload to JSON and publishes it to the topic,
// blocking until the server acknowledges the message.
func (p *PubSub) Publish(ctx context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.topic(topic).Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %q: %w", topic, err)
	}
	return id, nil
}

func (p *PubSub) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t
}

// Close stops every topic's publish goroutines and releases the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}
