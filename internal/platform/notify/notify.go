// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

/*
Package notify handles outbound email delivery for the platform.

The only mail the account backend sends is the password-reset verification
code. Delivery is decoupled from the HTTP response path: the service hands
the code to a [Dispatcher], which answers "accepted for delivery"
immediately and retries the actual send in the background.

Architecture:

  - Notifier: The delivery contract consumed by the auth service.
  - SMTPNotifier: Production transport over SMTP with STARTTLS.
  - LogNotifier: Development fallback that only logs the code.
  - Dispatcher: Asynchronous wrapper adding bounded retries.
*/
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Notifier is the outbound delivery contract for reset verification codes.
type Notifier interface {
	/*
		SendResetCode delivers the 6-digit verification code to the recipient.

		Parameters:
		  - ctx: context.Context
		  - recipient: string (destination email address)
		  - code: int (6-digit verification code)

		Returns:
		  - error: Transport-level delivery failures
	*/
	SendResetCode(ctx context.Context, recipient string, code int) error
}

// # Asynchronous Dispatch

const (
	// deliveryTimeout bounds one complete delivery attempt cycle.
	deliveryTimeout = 2 * time.Minute

	// retryBaseDelay is the first backoff step between attempts.
	retryBaseDelay = 2 * time.Second

	// maxRetries bounds the number of re-attempts after the first failure.
	maxRetries = 3
)

// Dispatcher wraps a [Notifier] with fire-and-forget semantics.
//
// SendResetCode never blocks beyond handing the work to a goroutine and
// never returns a delivery error: by the time the transport fails, the
// generic HTTP response has already been committed, so failures are logged
// for operators instead of surfaced to the client.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewDispatcher constructs a [Dispatcher] around the given transport.
func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger}
}

// SendResetCode accepts the code for background delivery.
//
// The request context is deliberately not propagated: delivery must outlive
// the HTTP request that triggered it.
func (dispatcher *Dispatcher) SendResetCode(_ context.Context, recipient string, code int) error {
	go dispatcher.deliver(recipient, code)
	return nil
}

// deliver runs the bounded retry loop for a single outbound mail.
func (dispatcher *Dispatcher) deliver(recipient string, code int) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := dispatcher.notifier.SendResetCode(ctx, recipient, code); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})

	if err != nil {
		dispatcher.logger.Error("reset_code_delivery_failed",
			slog.String("recipient", recipient),
			slog.Any("error", err),
		)
		return
	}

	dispatcher.logger.Info("reset_code_delivered", slog.String("recipient", recipient))
}

// # Development Fallback

// LogNotifier writes the code to the structured log instead of sending mail.
//
// Used when no SMTP host is configured, so the reset flow stays fully
// exercisable in local development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendResetCode logs the verification code at WARN so it stands out locally.
func (notifier *LogNotifier) SendResetCode(_ context.Context, recipient string, code int) error {
	notifier.logger.Warn("reset_code_not_sent_smtp_disabled",
		slog.String("recipient", recipient),
		slog.Int("code", code),
	)
	return nil
}
