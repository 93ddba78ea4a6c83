package global

import (
	"context"

	"github.com/admiralbulldogtv/echotts/src/voices"
)

type Subscriber interface {
	Subscribe(ctx context.Context, ch chan string, subscribeTo ...string) error
}

type Instance struct {
	Voices *voices.Service
	// Events is nil unless profile events are published through redis.
	Events Subscriber
}
