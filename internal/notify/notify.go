package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier dispatches one alert. Close releases the underlying channel.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
	Close() error
}

// Multi fans an alert out to every configured channel.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Close())
	}
	return err
}

// Discard drops every alert; used when no channel is configured.
type Discard struct{}

func (Discard) Send(context.Context, string, string) error { return nil }
func (Discard) Close() error                               { return nil }
