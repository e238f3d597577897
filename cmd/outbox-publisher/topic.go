package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/scrapscan-backend/pkg/outbox"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox/registry"
)

const sendTimeout = 15 * time.Second

// scrapTopic is the single Pub/Sub topic scrap events go out on.
type scrapTopic interface {
	Ping(context.Context) error
	Send(context.Context, *gcppubsub.Message) (string, error)
}

type topicClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type pubsubTopic struct {
	client    topicClient
	publisher *gcppubsub.Publisher
}

func newPubsubTopic(client topicClient, name string) (*pubsubTopic, error) {
	if client == nil {
		return nil, errors.New("pubsub client is required")
	}
	publisher := client.Publisher(name)
	if publisher == nil {
		return nil, fmt.Errorf("publisher not configured for topic %q", name)
	}
	return &pubsubTopic{client: client, publisher: publisher}, nil
}

func (t *pubsubTopic) Ping(ctx context.Context) error {
	return t.client.Ping(ctx)
}

// Send publishes msg and waits for the server id, bounded by sendTimeout.
func (t *pubsubTopic) Send(ctx context.Context, msg *gcppubsub.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return t.publisher.Publish(ctx, msg).Get(ctx)
}

// Stop flushes messages still buffered in the publisher.
func (t *pubsubTopic) Stop() {
	t.publisher.Stop()
}

// scrapMessage builds the Pub/Sub message for a validated scrap. Data is the stored
// envelope untouched; attributes carry what subscribers filter on.
func scrapMessage(raw []byte, envelope outbox.PayloadEnvelope, payload any) (*gcppubsub.Message, error) {
	event, ok := payload.(*payloads.ScrapValidatedEvent)
	if !ok || event == nil {
		return nil, registry.NewNonRetryableError(fmt.Errorf("unexpected scrap payload %T", payload))
	}
	attrs := map[string]string{
		"event_id":       envelope.EventID,
		"event_version":  fmt.Sprint(envelope.Version),
		"occurred_at":    envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
		"scrap_order_id": event.ScrapOrderID.String(),
		"scrap_name":     event.Name,
		"product_id":     event.ProductID.String(),
	}
	if event.CompanyID != nil {
		attrs["company_id"] = event.CompanyID.String()
	}
	if envelope.Actor != nil {
		attrs["actor_id"] = envelope.Actor.UserID.String()
	}
	return &gcppubsub.Message{Data: raw, Attributes: attrs}, nil
}
