package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauslube/raro-ledger/internal/models"
)

const webhookTimeout = 5 * time.Second

// WebhookNotifier POSTs lifecycle events as JSON to the gateway URL
type WebhookNotifier struct {
	client *http.Client
	logger *slog.Logger
	url    string
}

// NewWebhookNotifier creates a WebhookNotifier for the given gateway URL
func NewWebhookNotifier(url string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
		url:    url,
	}
}

// TransactionCreated publishes a transaction.created event
func (n *WebhookNotifier) TransactionCreated(ctx context.Context, txn *models.Transaction) {
	n.deliver(ctx, NewEvent(EventTransactionCreated, txn))
}

// TransactionCompleted publishes a transaction.completed event
func (n *WebhookNotifier) TransactionCompleted(ctx context.Context, txn *models.Transaction) {
	n.deliver(ctx, NewEvent(EventTransactionCompleted, txn))
}

// deliver sends the event without blocking the caller. The request uses its
// own context so an already-finished HTTP request does not cancel delivery.
func (n *WebhookNotifier) deliver(_ context.Context, event Event) {
	go func() {
		if err := n.send(event); err != nil {
			n.logger.Error("failed to deliver notification",
				"event", event.Type,
				"transaction_id", event.TransactionID,
				"error", err,
			)
			return
		}
		n.logger.Debug("notification delivered",
			"event", event.Type,
			"transaction_id", event.TransactionID,
		)
	}()
}

func (n *WebhookNotifier) send(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "raro-ledger/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with the close error

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	return nil
}
