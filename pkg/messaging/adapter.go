package messaging

import (
	"context"
)

// Consume subscribes to channel and passes each message to handle until ctx is
// cancelled or the subscription ends. Handler errors go to onError and do not stop consumption.
func Consume(ctx context.Context, b Broker, channel string, handle func(context.Context, []byte) error, onError func(error)) error {
	msgChan, err := b.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			if err := handle(ctx, msg); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
