package pubsub

import (
	"context"
	"os"
	"testing"
	"time"

	ps "cloud.google.com/go/pubsub"
)

func TestNewPublisherInvalidProject(t *testing.T) {
	if _, err := NewPublisher(context.Background(), ""); err == nil {
		t.Fatal("expected error when project ID is empty")
	}
}

func TestPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	pub, err := NewPublisher(ctx, "test-project")
	if err != nil {
		t.Fatalf("failed to create PubSubPublisher: %v", err)
	}

	topicName := "video-events-test"
	topic, err := pub.client.CreateTopic(ctx, topicName)
	if err != nil {
		t.Fatalf("failed to create topic: %v", err)
	}
	sub, err := pub.client.CreateSubscription(ctx, "video-events-test-sub", ps.SubscriptionConfig{Topic: topic})
	if err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}

	msgID, err := pub.Publish(ctx, topicName, []byte(`{"job_id":"test","status":"completed"}`))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if msgID == "" {
		t.Fatal("expected non-empty message ID")
	}

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c := make(chan []byte, 1)
	go func() {
		sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			c <- m.Data
			m.Ack()
			cancel()
		})
	}()

	select {
	case data := <-c:
		if string(data) != `{"job_id":"test","status":"completed"}` {
			t.Fatalf("unexpected message data: %s", string(data))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
