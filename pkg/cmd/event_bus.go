package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/aurelia-hq/strand/pkg/channels/gochannel"
	"github.com/aurelia-hq/strand/pkg/channels/kafka"
	"github.com/aurelia-hq/strand/pkg/eventbus"
)

// NewChannel creates the raw watermill pub/sub pair for the given provider.
// The worker consumes the run-job topic through its own router, so it needs
// the subscriber directly rather than wrapped in an event bus.
func NewChannel(provider string, logger *slog.Logger) (message.Publisher, message.Subscriber) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "strand")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return pub, sub
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-process pub/sub: %w", err))
		}

		return pub, sub
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	pub, sub := NewChannel(provider, logger)

	return eventbus.NewWatermillEventBus(pub, sub)
}
