package consumerWorker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"confreg/internal/dto"
	"confreg/internal/mailer"
	"confreg/internal/rabbit"
)

// Reader consumes notification events and delivers the corresponding emails.
type Reader struct {
	RMQ    *rabbit.Client
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.NotificationMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("type", msg.Type).
				Str("registration_id", msg.RegistrationID).
				Msg("received notification event")

			err := retry.Do(func() error {
				return r.mail.Send(msg)
			}, retry.Strategy{Attempts: 3, Delay: 2 * time.Second, Backoff: 2})
			if err != nil {
				zlog.Logger.Warn().
					Err(err).
					Str("email", msg.Email).
					Msg("giving up on notification email")
			}

			// Mail failures are terminal for the event; requeueing would
			// spam the recipient on a flaky SMTP server.
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
