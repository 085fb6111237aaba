package mqtt

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zigbee"
	"strings"
	"time"
)

// DefaultTopicFormat follows the Wiren Board control convention, "%d" is the endpoint.
const DefaultTopicFormat = "/devices/zigbee-bridge/controls/ep%d/on"

const DefaultPublishTimeout = 1 * time.Second

// Publisher delivers a payload to a topic, it is expected to block until the broker acknowledges or
// the context expires.
type Publisher func(ctx context.Context, topic string, payload []byte) error

// Connector establishes the broker connection and returns the publisher to use.
type Connector func(ctx context.Context) (Publisher, error)

var _ actuator.Backend = (*Backend)(nil)

type Backend struct {
	connect     Connector
	topicFormat string
	logger      logwrap.Logger

	publisher Publisher
}

func New(connect Connector, topicFormat string, l logwrap.Logger) *Backend {
	if len(topicFormat) == 0 {
		topicFormat = DefaultTopicFormat
	}

	return &Backend{connect: connect, topicFormat: topicFormat, logger: l}
}

func (b *Backend) Init(ctx context.Context) error {
	if b.publisher != nil {
		return nil
	}

	p, err := b.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	b.publisher = p
	return nil
}

func (b *Backend) SetState(ctx context.Context, endpoint zigbee.Endpoint, on bool) error {
	if b.publisher == nil {
		return actuator.ErrNotInitialised
	}

	topic := b.Topic(endpoint)

	pubCtx, cancel := context.WithTimeout(ctx, DefaultPublishTimeout)
	defer cancel()

	if err := b.publisher(pubCtx, topic, Payload(on)); err != nil {
		b.logger.LogError(ctx, "Failed to publish state to MQTT.", logwrap.Datum("topic", topic), logwrap.Err(err))
		return fmt.Errorf("failed to publish state: %w", err)
	}

	b.logger.LogInfo(ctx, "Published state to MQTT.", logwrap.Datum("topic", topic), logwrap.Datum("state", actuator.OnOffString(on)))
	return nil
}

func (b *Backend) Topic(endpoint zigbee.Endpoint) string {
	if strings.Contains(b.topicFormat, "%d") {
		return fmt.Sprintf(b.topicFormat, endpoint)
	}

	return fmt.Sprintf("%s/%d", strings.TrimSuffix(b.topicFormat, "/"), endpoint)
}

func Payload(on bool) []byte {
	if on {
		return []byte("1")
	}

	return []byte("0")
}
