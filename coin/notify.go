package coin

import (
	"context"
	"log"
	"time"
)

// Notifier delivers a message to an account holder after a successful
// redeem or validate. It must never affect the outcome of the operation
// that triggered it.
type Notifier interface {
	Notify(ctx context.Context, accountID AccountID, message, correlationID string) error
}

// LogNotifier writes notifications to the process log. Stands in for the
// real email dispatcher in dev and tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, accountID AccountID, message, correlationID string) error {
	log.Printf("[Notify] to=%s correlation=%s: %s", accountID, correlationID, message)
	return nil
}

// Dispatch sends a notification fire-and-forget. Failures are logged and
// never propagated to the caller.
func Dispatch(n Notifier, accountID AccountID, message, correlationID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Notify(ctx, accountID, message, correlationID); err != nil {
			log.Printf("[Notify] delivery failed for %s (correlation %s): %v", accountID, correlationID, err)
		}
	}()
}
