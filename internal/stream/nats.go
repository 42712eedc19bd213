package stream

import (
	"fmt"
	"log"
	"strings"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "tourdesk.changes."

// Bridge mirrors hub change signals over NATS so that list subscriptions on
// one instance re-emit when another instance writes. Payloads are empty; the
// subject carries the topic, subscribers re-query on receipt.
type Bridge struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

// ConnectBridge connects to NATS and wires the hub both ways. Remote events
// enter the hub through fanout only, so they are not re-mirrored.
func ConnectBridge(hub *Hub, url string) (*Bridge, error) {
	nc, err := nats.Connect(url, nats.Name("tourdesk"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	sub, err := nc.Subscribe(subjectPrefix+">", func(m *nats.Msg) {
		topic := strings.TrimPrefix(m.Subject, subjectPrefix)
		hub.fanout(topic)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}

	hub.setMirror(func(topic string) {
		if err := nc.Publish(subjectPrefix+topic, nil); err != nil {
			log.Printf("nats publish %s failed: %v", topic, err)
		}
	})

	log.Printf("Connected change bridge to NATS at %s", url)
	return &Bridge{nc: nc, sub: sub}, nil
}

// Connected reports whether the underlying NATS connection is up.
func (b *Bridge) Connected() bool {
	return b.nc.IsConnected()
}

// Close detaches the bridge and drops the NATS connection.
func (b *Bridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.nc.Close()
}
