package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"lego-house/internal/domain"
)

// Publisher is the subset of Client the transport needs.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Transport publishes device commands as JSON. The model's microcontroller
// bridge subscribes to the device topics and drives the lights and speaker.
type Transport struct {
	pub    Publisher
	topics Topics
}

func NewTransport(pub Publisher, topics Topics) *Transport {
	return &Transport{pub: pub, topics: topics}
}

func (t *Transport) Send(_ context.Context, cmd domain.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	// retained so a rebooted bridge picks up the current state
	if err := t.pub.Publish(t.topics.Device(cmd.Target), payload, true); err != nil {
		return fmt.Errorf("publishing %s command: %w", cmd.Target, err)
	}
	return nil
}
