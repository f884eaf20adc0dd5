package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/gomarket/pkg/messaging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var _ messaging.Publisher = (*NatsPublisher)(nil)

// NatsPublisher stores events in JetStream. Keyed events are published with
// their key as the message id so the stream drops duplicates.
type NatsPublisher struct {
	js jetstream.JetStream
}

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Subject(), err)
	}
	msg := &nats.Msg{
		Subject: event.Subject(),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Content-Type", "application/json")

	var opts []jetstream.PublishOpt
	if keyed, ok := event.(messaging.Keyed); ok && keyed.Key() != "" {
		opts = append(opts, jetstream.WithMsgID(keyed.Key()))
	}
	if _, err := p.js.PublishMsg(ctx, msg, opts...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
