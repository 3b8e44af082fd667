// Package notifier delivers stored notifications to clients over SMS and
// email. Delivery is best effort and happens in the background.
package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PixelPath7/vive-sano/configs"
	"github.com/PixelPath7/vive-sano/internal/models"
)

// ErrMissingContact means the client has no address for the channel.
var ErrMissingContact = errors.New("client has no contact address for this channel")

type Channel interface {
	Name() string
	Deliver(ctx context.Context, to models.Client, n models.Notification) error
}

const deliveryTimeout = 30 * time.Second

var (
	mu       sync.RWMutex
	channels []Channel
	inflight sync.WaitGroup
)

// Init configures the SMS channel and, when a sender address is set, the
// SES email channel.
func Init(ctx context.Context) {
	configured := []Channel{NewSMSChannel(config.LoadAfricaTalkingConfig())}

	email, err := NewEmailChannel(ctx, config.LoadEmailConfig())
	if err != nil {
		log.Warn().Err(err).Msg("email notifications disabled")
	} else {
		configured = append(configured, email)
	}

	SetChannels(configured...)
}

func SetChannels(cs ...Channel) {
	mu.Lock()
	defer mu.Unlock()
	channels = cs
}

// Notify delivers n to the client on every configured channel, each in its
// own goroutine. Failures are logged and never reach the caller.
func Notify(to models.Client, n models.Notification) {
	mu.RLock()
	current := channels
	mu.RUnlock()

	for _, ch := range current {
		inflight.Add(1)

		go func(ch Channel) {
			defer inflight.Done()

			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()

			err := ch.Deliver(ctx, to, n)
			switch {
			case errors.Is(err, ErrMissingContact):
				log.Debug().Str("channel", ch.Name()).Uint("client_id", to.ID).Msg("notification skipped")
			case err != nil:
				log.Error().Err(err).
					Str("channel", ch.Name()).
					Uint("client_id", to.ID).
					Uint("notification_id", n.ID).
					Msg("failed to deliver notification")
			}
		}(ch)
	}
}

// Wait blocks until every delivery started by Notify has finished.
func Wait() {
	inflight.Wait()
}
