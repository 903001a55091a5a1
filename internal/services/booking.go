package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/repos"
)

const (
	defaultMaxBulkBook   = 20
	defaultMaxBulkCancel = 50
	bulkConcurrency      = 5
)

type BookInput struct {
	Request            *domain.ShipmentRequest `json:"request"`
	Carrier            string                  `json:"carrier"`
	ExistingShipmentID *uuid.UUID              `json:"existing_shipment_id,omitempty"`
	RateQuoteID        *uuid.UUID              `json:"rate_quote_id,omitempty"`
	NotifyEmail        string                  `json:"notify_email,omitempty"`
}

type BookResult struct {
	Shipment      *domain.Shipment    `json:"shipment"`
	Label         *domain.LabelResult `json:"label"`
	EstimatedCost float64             `json:"estimated_cost"`
	Savings       float64             `json:"savings"`
}

// BulkOutcome is one element's result in a bulk operation. Elements are
/// independent: a failed element never aborts its siblings.
type BulkOutcome struct {
	Index    int              `json:"index"`
	Booked   *BookResult      `json:"booked,omitempty"`
	Shipment *domain.Shipment `json:"shipment,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type CancelInput struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	Reason         string `json:"reason,omitempty"`
	NotifyEmail    string `json:"notify_email,omitempty"`
}

// BookingService books and cancels shipments against a chosen carrier and
// keeps the persisted Shipment record consistent with what the carrier
// confirmed.
type BookingService interface {
	Book(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, in BookInput) (*BookResult, error)
	BookBulk(ctx context.Context, ownerID uuid.UUID, ins []BookInput) ([]BulkOutcome, error)
	Cancel(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, in CancelInput) (*domain.Shipment, error)
	CancelBulk(ctx context.Context, ownerID uuid.UUID, ins []CancelInput) ([]BulkOutcome, error)
	Track(ctx context.Context, ownerID uuid.UUID, trackingNumber string) ([]domain.TrackingEvent, error)
	GetByTrackingNumber(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, trackingNumber string) (*domain.Shipment, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*domain.Shipment, error)
}

type BookingServiceConfig struct {
	MaxBulkBook   int
	MaxBulkCancel int
}

type bookingService struct {
	db           *gorm.DB
	log          *logger.Logger
	registry     *carriers.Registry
	shipmentRepo repos.ShipmentRepo
	rateRepo     repos.RateRequestRepo
	audit        AuditService
	notifier     ShipmentNotifier
	cfg          BookingServiceConfig
}

func NewBookingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *carriers.Registry,
	shipmentRepo repos.ShipmentRepo,
	rateRepo repos.RateRequestRepo,
	audit AuditService,
	notifier ShipmentNotifier,
	cfg BookingServiceConfig,
) BookingService {
	serviceLog := baseLog.With("service", "BookingService")
	if cfg.MaxBulkBook <= 0 {
		cfg.MaxBulkBook = defaultMaxBulkBook
	}
	if cfg.MaxBulkCancel <= 0 {
		cfg.MaxBulkCancel = defaultMaxBulkCancel
	}
	return &bookingService{
		db:           db,
		log:          serviceLog,
		registry:     registry,
		shipmentRepo: shipmentRepo,
		rateRepo:     rateRepo,
		audit:        audit,
		notifier:     notifier,
		cfg:          cfg,
	}
}

func (bs *bookingService) Book(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, in BookInput) (*BookResult, error) {
	if in.Request == nil {
		return nil, &domain.ValidationError{Field: "request", Reason: "required"}
	}
	carrierName := strings.ToLower(strings.TrimSpace(in.Carrier))
	adapter, ok := bs.registry.Get(carrierName)
	if !ok {
		return nil, &domain.CarrierUnavailableError{Carrier: carrierName}
	}

	var estimatedCost, savings float64
	if in.RateQuoteID != nil {
		quote, err := bs.rateRepo.GetQuoteByID(ctx, tx, *in.RateQuoteID)
		if err != nil {
			return nil, fmt.Errorf("load rate quote: %w", err)
		}
		// The quote must have been issued for exactly this carrier/service;
		// anything else would book at a price never actually offered.
		if !strings.EqualFold(quote.Carrier, carrierName) ||
			!strings.EqualFold(quote.ServiceCode, in.Request.ServiceType) {
			return nil, &domain.RateMismatchError{
				Carrier:      carrierName,
				ServiceType:  in.Request.ServiceType,
				QuoteCarrier: quote.Carrier,
				QuoteService: quote.ServiceCode,
			}
		}
		estimatedCost = quote.Cost
		savings = quote.Savings
	}

	label, err := adapter.CreateShipment(ctx, in.Request)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		// No persistence on carrier failure: a stranded half-booked record
		// is worse than no record.
		return nil, &domain.BookingFailedError{Carrier: carrierName, Err: err}
	}

	shipment, err := bs.persistBooking(ctx, tx, ownerID, in, carrierName, label)
	if err != nil {
		return nil, err
	}

	bs.audit.Record(ctx, carrierName, domain.ActivityBook, label.TrackingNumber, map[string]any{
		"shipment_id": shipment.ID.String(),
		"service":     shipment.ServiceType,
		"cost":        label.Cost,
	})
	bs.notifier.ShipmentBooked(ctx, shipment, notifyRecipient(in))

	if estimatedCost == 0 {
		estimatedCost = label.Cost
	}
	return &BookResult{
		Shipment:      shipment,
		Label:         label,
		EstimatedCost: estimatedCost,
		Savings:       savings,
	}, nil
}

func (bs *bookingService) persistBooking(
	ctx context.Context,
	tx *gorm.DB,
	ownerID uuid.UUID,
	in BookInput,
	carrierName string,
	label *domain.LabelResult,
) (*domain.Shipment, error) {
	now := time.Now().UTC()
	req := in.Request

	if in.ExistingShipmentID != nil {
		existing, err := bs.loadOwnedShipmentByID(ctx, tx, ownerID, *in.ExistingShipmentID)
		if err != nil {
			return nil, err
		}
		fields := map[string]any{
			"tracking_number":  label.TrackingNumber,
			"carrier":          carrierName,
			"service_type":     req.ServiceType,
			"status":           string(domain.StatusLabelCreated),
			"from_address":     mustJSON(req.From),
			"to_address":       mustJSON(req.To),
			"packages":         mustJSON(req.Packages),
			"total_weight_lbs": req.TotalWeightLbs(),
			"total_value":      req.TotalDeclaredValue(),
			"cost":             label.Cost,
			"currency":         label.Currency,
			"label_url":        label.LabelURL,
			"label_format":     label.LabelFormat,
		}
		if in.RateQuoteID != nil {
			fields["rate_quote_id"] = *in.RateQuoteID
		}
		if err := bs.shipmentRepo.UpdateVersioned(ctx, tx, existing.ID, existing.Version, fields); err != nil {
			return nil, fmt.Errorf("update shipment: %w", err)
		}
		updated, err := bs.loadOwnedShipmentByID(ctx, tx, ownerID, existing.ID)
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	shipment := &domain.Shipment{
		ID:             uuid.New(),
		OwnerUserID:    ownerID,
		TrackingNumber: label.TrackingNumber,
		Carrier:        carrierName,
		ServiceType:    req.ServiceType,
		Status:         domain.StatusLabelCreated,
		FromAddress:    mustJSON(req.From),
		ToAddress:      mustJSON(req.To),
		Packages:       mustJSON(req.Packages),
		TotalWeightLbs: req.TotalWeightLbs(),
		TotalValue:     req.TotalDeclaredValue(),
		Cost:           label.Cost,
		Currency:       label.Currency,
		LabelURL:       label.LabelURL,
		LabelFormat:    label.LabelFormat,
		RateQuoteID:    in.RateQuoteID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := bs.shipmentRepo.Create(ctx, tx, []*domain.Shipment{shipment}); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	return shipment, nil
}

func (bs *bookingService) BookBulk(ctx context.Context, ownerID uuid.UUID, ins []BookInput) ([]BulkOutcome, error) {
	if len(ins) == 0 {
		return nil, &domain.ValidationError{Field: "shipments", Reason: "at least one element required"}
	}
	if len(ins) > bs.cfg.MaxBulkBook {
		return nil, &domain.ValidationError{
			Field:  "shipments",
			Reason: fmt.Sprintf("at most %d elements per request", bs.cfg.MaxBulkBook),
		}
	}

	outcomes := make([]BulkOutcome, len(ins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, in := range ins {
		i, in := i, in
		g.Go(func() error {
			res, err := bs.Book(gctx, nil, ownerID, in)
			if err != nil {
				// Booked siblings stay booked; this element is just reported.
				outcomes[i] = BulkOutcome{Index: i, Error: err.Error()}
				return nil
			}
			outcomes[i] = BulkOutcome{Index: i, Booked: res}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (bs *bookingService) Cancel(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, in CancelInput) (*domain.Shipment, error) {
	carrierName := strings.ToLower(strings.TrimSpace(in.Carrier))
	adapter, ok := bs.registry.Get(carrierName)
	if !ok {
		return nil, &domain.CarrierUnavailableError{Carrier: carrierName}
	}

	shipment, err := bs.shipmentRepo.GetByTrackingNumber(ctx, tx, in.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if shipment.OwnerUserID != ownerID {
		return nil, domain.ErrForbidden
	}
	if !strings.EqualFold(shipment.Carrier, carrierName) {
		return nil, &domain.ValidationError{
			Field:  "carrier",
			Reason: fmt.Sprintf("shipment was booked with %s", shipment.Carrier),
		}
	}
	if shipment.Status.Terminal() {
		// Rejected before any external call.
		return nil, &domain.NotCancellableError{
			TrackingNumber: shipment.TrackingNumber,
			Status:         shipment.Status,
		}
	}

	if !adapter.CancelShipment(ctx, in.TrackingNumber) {
		// No optimistic cancellation: local status stays as-is until the
		// carrier confirms.
		return nil, &domain.CancelFailedError{
			Carrier:        carrierName,
			TrackingNumber: in.TrackingNumber,
		}
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"status":        string(domain.StatusCancelled),
		"cancel_reason": in.Reason,
		"cancelled_at":  now,
	}
	if err := bs.shipmentRepo.UpdateVersioned(ctx, tx, shipment.ID, shipment.Version, fields); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	shipment.Status = domain.StatusCancelled
	shipment.CancelReason = in.Reason
	shipment.CancelledAt = &now
	shipment.Version++

	bs.audit.Record(ctx, carrierName, domain.ActivityCancel, in.TrackingNumber, map[string]any{
		"shipment_id": shipment.ID.String(),
		"reason":      in.Reason,
	})
	bs.notifier.ShipmentCancelled(ctx, shipment, in.NotifyEmail)

	return shipment, nil
}

func (bs *bookingService) CancelBulk(ctx context.Context, ownerID uuid.UUID, ins []CancelInput) ([]BulkOutcome, error) {
	if len(ins) == 0 {
		return nil, &domain.ValidationError{Field: "cancellations", Reason: "at least one element required"}
	}
	if len(ins) > bs.cfg.MaxBulkCancel {
		return nil, &domain.ValidationError{
			Field:  "cancellations",
			Reason: fmt.Sprintf("at most %d elements per request", bs.cfg.MaxBulkCancel),
		}
	}

	outcomes := make([]BulkOutcome, len(ins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, in := range ins {
		i, in := i, in
		g.Go(func() error {
			shipment, err := bs.Cancel(gctx, nil, ownerID, in)
			if err != nil {
				outcomes[i] = BulkOutcome{Index: i, Error: err.Error()}
				return nil
			}
			outcomes[i] = BulkOutcome{Index: i, Shipment: shipment}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (bs *bookingService) Track(ctx context.Context, ownerID uuid.UUID, trackingNumber string) ([]domain.TrackingEvent, error) {
	shipment, err := bs.shipmentRepo.GetByTrackingNumber(ctx, nil, trackingNumber)
	if err != nil {
		return nil, err
	}
	if shipment.OwnerUserID != ownerID {
		return nil, domain.ErrForbidden
	}
	adapter, ok := bs.registry.Get(shipment.Carrier)
	if !ok {
		return nil, &domain.CarrierUnavailableError{Carrier: shipment.Carrier}
	}

	events, err := adapter.TrackShipment(ctx, trackingNumber)
	if err != nil {
		return nil, &domain.CarrierCallError{Carrier: shipment.Carrier, Err: err}
	}

	bs.refreshStatus(ctx, shipment, events)
	bs.audit.Record(ctx, shipment.Carrier, domain.ActivityTrack, trackingNumber, nil)
	return events, nil
}

// refreshStatus folds the newest tracking event into the local status when
// it maps to a legal forward transition. A stale or unknown event is simply
// ignored; this is advisory, the carrier remains the source of movement.
func (bs *bookingService) refreshStatus(ctx context.Context, shipment *domain.Shipment, events []domain.TrackingEvent) {
	if len(events) == 0 {
		return
	}
	latest := events[len(events)-1]
	next := statusFromTrackingEvent(latest.Status)
	if next == "" || !shipment.Status.CanTransitionTo(next) {
		return
	}
	fields := map[string]any{"status": string(next)}
	if err := bs.shipmentRepo.UpdateVersioned(ctx, nil, shipment.ID, shipment.Version, fields); err != nil {
		bs.log.Warn("status refresh skipped",
			"shipment_id", shipment.ID,
			"status", next,
			"error", err,
		)
		return
	}
	shipment.Status = next
	shipment.Version++
}

func statusFromTrackingEvent(raw string) domain.ShipmentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "picked_up", "pickup", "accepted":
		return domain.StatusPickedUp
	case "in_transit", "transit", "departed", "arrived":
		return domain.StatusInTransit
	case "delivered":
		return domain.StatusDelivered
	case "returned", "return_to_sender":
		return domain.StatusReturned
	default:
		return ""
	}
}

func (bs *bookingService) GetByTrackingNumber(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, trackingNumber string) (*domain.Shipment, error) {
	shipment, err := bs.shipmentRepo.GetByTrackingNumber(ctx, tx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if shipment.OwnerUserID != ownerID {
		return nil, domain.ErrForbidden
	}
	return shipment, nil
}

func (bs *bookingService) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*domain.Shipment, error) {
	return bs.shipmentRepo.ListByOwner(ctx, tx, ownerID)
}

func (bs *bookingService) loadOwnedShipmentByID(ctx context.Context, tx *gorm.DB, ownerID, id uuid.UUID) (*domain.Shipment, error) {
	found, err := bs.shipmentRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || found[0] == nil {
		return nil, domain.ErrNotFound
	}
	if found[0].OwnerUserID != ownerID {
		return nil, domain.ErrForbidden
	}
	return found[0], nil
}

func notifyRecipient(in BookInput) string {
	if in.NotifyEmail != "" {
		return in.NotifyEmail
	}
	if in.Request != nil {
		return in.Request.To.Email
	}
	return ""
}
