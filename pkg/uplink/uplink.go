// Package uplink abstracts the MQTT connection the agent reports through, either the
// client embedded in the cellular modem or a broker reached over the host network.
package uplink

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConnected is returned when publishing before Connect succeeded.
var ErrNotConnected = errors.New("uplink is not connected")

// Handler receives the messages of a subscription.
type Handler func(topic string, payload []byte)

// Publisher is an MQTT connection.
type Publisher interface {
	Connect(ctx context.Context) error
	Connected() bool
	Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error
	Subscribe(ctx context.Context, topic string, qos byte, handler Handler) error
	Close() error
}

// TopicMatches reports whether topic matches the subscription filter, honouring the
// single level (+) and multi level (#) wildcards.
func TopicMatches(filter, topic string) bool {
	if filter == topic {
		return true
	}
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, f := range fl {
		if f == "#" {
			return i == len(fl)-1
		}
		if i >= len(tl) {
			return false
		}
		if f != "+" && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}
