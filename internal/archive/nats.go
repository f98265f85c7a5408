package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSink publishes each round as JSON on one subject.
type NATSSink struct {
	conn    publisher
	subject string
}

func ConnectNATS(url, subject string) (*NATSSink, error) {
	opts := []nats.Option{
		nats.Name("cah-server"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSSink{conn: nc, subject: subject}, nil
}

func (n *NATSSink) Record(_ context.Context, res RoundResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject, data)
}

func (n *NATSSink) Close() error {
	return n.conn.Drain()
}
