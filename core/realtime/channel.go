package realtime

import (
	"context"

	"github.com/kilianp07/kmrl-dash/core/factory"
)

// Channel is a persistent server push connection. Run delivers events to out
// until ctx is cancelled, emitting Connected and Disconnected as the link
// changes state. Reconnection is the transport's concern.
type Channel interface {
	Run(ctx context.Context, out chan<- Event) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, out chan<- Event) error

func (f ChannelFunc) Run(ctx context.Context, out chan<- Event) error { return f(ctx, out) }

var channelRegistry = factory.NewRegistry[Channel]()

// RegisterChannel adds a transport factory identified by name.
func RegisterChannel(name string, f factory.Factory[Channel]) error {
	return channelRegistry.Register(name, f)
}

// NewChannel creates the transport described by cfg.
func NewChannel(cfg factory.ModuleConfig) (Channel, error) {
	return channelRegistry.Create(cfg)
}

// Emit sends ev unless ctx is done. It reports whether the event was sent.
func Emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
