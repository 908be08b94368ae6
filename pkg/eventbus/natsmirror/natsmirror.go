// Package natsmirror implements eventbus.Mirror over NATS, standing in as
// the Go-ecosystem durable external event stream (the original engine
// this was modeled on uses Apache Iggy, for which no Go client exists in
// the retrieved dependency pack).
package natsmirror

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/flowforge/flowengine/pkg/eventbus"
)

// Mirror publishes every bus event as a JSON message to a NATS subject.
type Mirror struct {
	conn    *nats.Conn
	subject string
}

// Config controls the NATS connection used by the mirror.
type Config struct {
	URL     string
	Subject string
}

// DefaultConfig matches a local single-node NATS server.
func DefaultConfig() Config {
	return Config{URL: nats.DefaultURL, Subject: "flowengine.events"}
}

// Connect dials NATS and returns a ready-to-use Mirror.
func Connect(cfg Config) (*Mirror, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	return &Mirror{conn: conn, subject: cfg.Subject}, nil
}

// Publish implements eventbus.Mirror.
func (m *Mirror) Publish(ctx context.Context, event eventbus.ExecutionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return m.conn.Publish(m.subject, data)
}

// Close drains and closes the underlying NATS connection.
func (m *Mirror) Close() error {
	return m.conn.Drain()
}
