package notifications

import (
	"context"

	"github.com/matiks/matiks-monitor/internal/models"
)

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(ctx context.Context, report *models.Report) error
	SendAlert(ctx context.Context, alert *models.Alert) error
}
