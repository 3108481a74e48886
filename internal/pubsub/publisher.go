package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher for the given GCP project.
func NewPublisher(ctx context.Context, projectID string) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}
