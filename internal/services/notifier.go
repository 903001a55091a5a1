package services

import (
	"context"
	"fmt"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/platform/mailer"
)

// ShipmentNotifier sends best-effort booking/cancellation notifications.
// Failures are logged and swallowed; a notification must never roll back or
// fail the operation it announces.
type ShipmentNotifier interface {
	ShipmentBooked(ctx context.Context, shipment *domain.Shipment, recipient string)
	ShipmentCancelled(ctx context.Context, shipment *domain.Shipment, recipient string)
}

type shipmentNotifier struct {
	log  *logger.Logger
	mail mailer.Client
}

// NewShipmentNotifier accepts a nil mailer; notifications then become no-ops.
func NewShipmentNotifier(baseLog *logger.Logger, mail mailer.Client) ShipmentNotifier {
	return &shipmentNotifier{
		log:  baseLog.With("service", "ShipmentNotifier"),
		mail: mail,
	}
}

func (n *shipmentNotifier) ShipmentBooked(ctx context.Context, shipment *domain.Shipment, recipient string) {
	if n == nil || shipment == nil {
		return
	}
	subject := fmt.Sprintf("Shipment booked: %s", shipment.TrackingNumber)
	body := fmt.Sprintf(
		"Your shipment was booked with %s (%s).\nTracking number: %s\nCost: %.2f %s\n",
		shipment.Carrier, shipment.ServiceType, shipment.TrackingNumber, shipment.Cost, shipment.Currency,
	)
	n.send(ctx, shipment, recipient, subject, body, "shipment_booked")
}

func (n *shipmentNotifier) ShipmentCancelled(ctx context.Context, shipment *domain.Shipment, recipient string) {
	if n == nil || shipment == nil {
		return
	}
	subject := fmt.Sprintf("Shipment cancelled: %s", shipment.TrackingNumber)
	body := fmt.Sprintf(
		"Your shipment %s with %s was cancelled.\n",
		shipment.TrackingNumber, shipment.Carrier,
	)
	if shipment.CancelReason != "" {
		body += fmt.Sprintf("Reason: %s\n", shipment.CancelReason)
	}
	n.send(ctx, shipment, recipient, subject, body, "shipment_cancelled")
}

func (n *shipmentNotifier) send(ctx context.Context, shipment *domain.Shipment, recipient, subject, body, event string) {
	if n.mail == nil || recipient == "" {
		n.log.Debug("notification skipped", "event", event, "shipment_id", shipment.ID)
		return
	}
	err := n.mail.Send(ctx, mailer.SendEmailRequest{
		To:      []mailer.EmailAddress{{Email: recipient}},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		n.log.Warn("notification send failed",
			"event", event,
			"shipment_id", shipment.ID,
			"error", err,
		)
	}
}
