package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/httpx"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/repos"
)

const (
	defaultPerCallTimeout        = 10 * time.Second
	defaultMaxServicesPerCarrier = 5
	fanoutConcurrencyLimit       = 16
)

type RateShopSummary struct {
	QuoteCount      int      `json:"quote_count"`
	CarriersQueried int      `json:"carriers_queried"`
	ErrorCount      int      `json:"error_count"`
	CheapestCost    *float64 `json:"cheapest_cost,omitempty"`
	AverageCost     float64  `json:"average_cost"`
	PriceRange      float64  `json:"price_range"`
}

type RateShopResult struct {
	RequestID uuid.UUID             `json:"request_id"`
	Quotes    []*domain.RateQuote   `json:"quotes"`
	Errors    []domain.CarrierError `json:"errors"`
	Summary   RateShopSummary       `json:"summary"`
}

// RateService fans a shipment request out across carriers, ranks the merged
// quotes and persists an immutable snapshot of the whole exchange.
type RateService interface {
	GetRates(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, req *domain.ShipmentRequest, targetCarriers, targetServices []string) (*RateShopResult, error)
	GetRequestByID(ctx context.Context, tx *gorm.DB, ownerID, requestID uuid.UUID) (*RateShopResult, error)
}

type RateServiceConfig struct {
	PerCallTimeout        time.Duration
	MaxServicesPerCarrier int
}

type rateService struct {
	db       *gorm.DB
	log      *logger.Logger
	registry *carriers.Registry
	rateRepo repos.RateRequestRepo
	audit    AuditService
	cfg      RateServiceConfig
}

func NewRateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *carriers.Registry,
	rateRepo repos.RateRequestRepo,
	audit AuditService,
	cfg RateServiceConfig,
) RateService {
	serviceLog := baseLog.With("service", "RateService")
	if cfg.PerCallTimeout <= 0 {
		cfg.PerCallTimeout = defaultPerCallTimeout
	}
	if cfg.MaxServicesPerCarrier <= 0 {
		cfg.MaxServicesPerCarrier = defaultMaxServicesPerCarrier
	}
	return &rateService{
		db:       db,
		log:      serviceLog,
		registry: registry,
		rateRepo: rateRepo,
		audit:    audit,
		cfg:      cfg,
	}
}

// ratePair is one (carrier, service) query in the fan-out.
type ratePair struct {
	adapter     carriers.Adapter
	serviceCode string
}

type pairResult struct {
	quote *domain.RateQuote
	err   *domain.CarrierError
}

func (rs *rateService) GetRates(
	ctx context.Context,
	tx *gorm.DB,
	ownerID uuid.UUID,
	req *domain.ShipmentRequest,
	targetCarriers, targetServices []string,
) (*RateShopResult, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}

	resolved, carrierErrors := rs.resolveCarriers(targetCarriers)
	pairs := rs.buildPairs(resolved, targetServices)

	tracer := otel.Tracer("rates")
	ctx, span := tracer.Start(ctx, "rate_fanout")
	span.SetAttributes(
		attribute.Int("carriers", len(resolved)),
		attribute.Int("pairs", len(pairs)),
	)

	results := make([]pairResult, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutConcurrencyLimit)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, rs.cfg.PerCallTimeout)
			defer cancel()

			quote, err := pair.adapter.QuoteRate(callCtx, req, pair.serviceCode)
			if err != nil {
				// Branch failures are collected, never returned: one slow or
				// broken carrier must not sink its siblings.
				results[i] = pairResult{err: &domain.CarrierError{
					Carrier: pair.adapter.Name(),
					Service: pair.serviceCode,
					Message: carrierErrorMessage(err),
				}}
				return nil
			}
			results[i] = pairResult{quote: quote}
			return nil
		})
	}
	_ = g.Wait()
	span.End()

	quotes := make([]*domain.RateQuote, 0, len(results))
	for _, r := range results {
		if r.quote != nil {
			quotes = append(quotes, r.quote)
		}
		if r.err != nil {
			carrierErrors = append(carrierErrors, *r.err)
		}
	}

	rankQuotes(quotes)

	requestID := uuid.New()
	now := time.Now().UTC()
	for _, q := range quotes {
		q.ID = uuid.New()
		q.RateRequestID = requestID
		q.CreatedAt = now
	}

	carrierNames := make([]string, 0, len(resolved))
	for _, a := range resolved {
		carrierNames = append(carrierNames, a.Name())
	}

	record := &domain.RateRequestRecord{
		ID:          requestID,
		OwnerUserID: ownerID,
		Request:     mustJSON(req),
		Carriers:    mustJSON(carrierNames),
		Errors:      mustJSON(carrierErrors),
		CreatedAt:   now,
	}
	if err := rs.rateRepo.Create(ctx, tx, record, quotes); err != nil {
		rs.log.Error("rate request persist failed", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("persist rate request: %w", err)
	}

	for _, name := range carrierNames {
		rs.audit.Record(ctx, name, domain.ActivityRateQuote, "", map[string]any{
			"request_id": requestID.String(),
		})
	}

	result := &RateShopResult{
		RequestID: requestID,
		Quotes:    quotes,
		Errors:    carrierErrors,
		Summary:   summarize(quotes, len(targetCarrierCount(targetCarriers, carrierNames)), len(carrierErrors)),
	}
	rs.log.Info("rate shop complete",
		"request_id", requestID,
		"quotes", len(quotes),
		"errors", len(carrierErrors),
	)
	return result, nil
}

// resolveCarriers intersects the explicit carrier list with the registry.
// Unregistered names become per-carrier errors, never a request failure.
func (rs *rateService) resolveCarriers(targetCarriers []string) ([]carriers.Adapter, []domain.CarrierError) {
	var resolved []carriers.Adapter
	var errs []domain.CarrierError

	if len(targetCarriers) == 0 {
		for _, name := range rs.registry.List() {
			if a, ok := rs.registry.Get(name); ok {
				resolved = append(resolved, a)
			}
		}
		return resolved, nil
	}

	seen := map[string]bool{}
	for _, name := range targetCarriers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		a, ok := rs.registry.Get(key)
		if !ok {
			errs = append(errs, domain.CarrierError{
				Carrier: key,
				Message: "carrier not registered",
			})
			continue
		}
		resolved = append(resolved, a)
	}
	return resolved, errs
}

// buildPairs expands carriers into (carrier, service) queries. Explicit
// service codes are queried as given; otherwise each carrier's default set
// is used, capped to bound the fan-out.
func (rs *rateService) buildPairs(resolved []carriers.Adapter, targetServices []string) []ratePair {
	var pairs []ratePair
	for _, a := range resolved {
		if len(targetServices) > 0 {
			for _, svc := range targetServices {
				svc = strings.TrimSpace(svc)
				if svc == "" {
					continue
				}
				pairs = append(pairs, ratePair{adapter: a, serviceCode: svc})
			}
			continue
		}
		services := a.ListServices()
		if len(services) > rs.cfg.MaxServicesPerCarrier {
			services = services[:rs.cfg.MaxServicesPerCarrier]
		}
		for _, svc := range services {
			pairs = append(pairs, ratePair{adapter: a, serviceCode: svc.Code})
		}
	}
	return pairs
}

func (rs *rateService) GetRequestByID(ctx context.Context, tx *gorm.DB, ownerID, requestID uuid.UUID) (*RateShopResult, error) {
	record, quotes, err := rs.rateRepo.GetByID(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if record.OwnerUserID != ownerID {
		return nil, domain.ErrForbidden
	}

	var carrierErrors []domain.CarrierError
	if len(record.Errors) > 0 {
		if err := json.Unmarshal(record.Errors, &carrierErrors); err != nil {
			rs.log.Warn("stored carrier errors not decodable", "request_id", requestID, "error", err)
		}
	}
	var carrierNames []string
	if len(record.Carriers) > 0 {
		_ = json.Unmarshal(record.Carriers, &carrierNames)
	}

	return &RateShopResult{
		RequestID: record.ID,
		Quotes:    quotes,
		Errors:    carrierErrors,
		Summary:   summarize(quotes, len(carrierNames), len(carrierErrors)),
	}, nil
}

// rankQuotes sorts ascending by cost (stable, so ties keep arrival order)
// and assigns dense rank plus savings relative to the cheapest quote.
func rankQuotes(quotes []*domain.RateQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Cost < quotes[j].Cost
	})
	if len(quotes) == 0 {
		return
	}
	cheapest := quotes[0].Cost
	for i, q := range quotes {
		q.Rank = i + 1
		if i == 0 {
			q.Savings = 0
			q.PercentageSavings = 0
			continue
		}
		q.Savings = q.Cost - cheapest
		if cheapest > 0 {
			q.PercentageSavings = (q.Cost - cheapest) / cheapest * 100
		}
	}
}

func summarize(quotes []*domain.RateQuote, carriersQueried, errorCount int) RateShopSummary {
	s := RateShopSummary{
		QuoteCount:      len(quotes),
		CarriersQueried: carriersQueried,
		ErrorCount:      errorCount,
	}
	if len(quotes) == 0 {
		return s
	}
	cheapest := quotes[0].Cost
	most := quotes[0].Cost
	var total float64
	for _, q := range quotes {
		total += q.Cost
		if q.Cost < cheapest {
			cheapest = q.Cost
		}
		if q.Cost > most {
			most = q.Cost
		}
	}
	s.CheapestCost = &cheapest
	s.AverageCost = total / float64(len(quotes))
	s.PriceRange = most - cheapest
	return s
}

// carrierErrorMessage collapses timeouts to a stable string so persisted
// error lists stay comparable across runs.
func carrierErrorMessage(err error) string {
	if httpx.IsTimeout(err) {
		return "timeout"
	}
	return err.Error()
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(raw)
}

// targetCarrierCount reports the carriers a caller asked for, falling back
// to the resolved set when none were named; unregistered names still count
// as queried for summary purposes.
func targetCarrierCount(requested, resolved []string) []string {
	if len(requested) == 0 {
		return resolved
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
