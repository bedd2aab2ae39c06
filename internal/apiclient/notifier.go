package apiclient

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

const notifications model.ResourceType = "notifications"

// Notifier posts messages to the clinic notification service.
type Notifier struct {
	client *Client
}

func NewNotifier(cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Notifier {
	return &Notifier{client: New(cfg, m, logger)}
}

func (n *Notifier) Send(ctx context.Context, msg model.Notification) error {
	return n.client.do(ctx, request{
		resource: notifications,
		method:   http.MethodPost,
		path:     "/" + notifications.String(),
		body:     msg,
	})
}
