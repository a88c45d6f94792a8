package carpark

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"car-park/internal/events"
	"car-park/internal/logging"
)

type InstrumentedCarPark struct {
	*CarPark
	telemetry *TelemetryProvider
	publisher events.Publisher

	// Metrics
	operations        metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	spotsGauge        metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedCarPark(carPark *CarPark, telemetry *TelemetryProvider, publisher events.Publisher) (*InstrumentedCarPark, error) {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	meter := telemetry.Meter()

	operations, err := meter.Int64Counter("carpark_operations_total",
		metric.WithDescription("Total number of car park operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("carpark_occupied_spots",
		metric.WithDescription("Current number of occupied parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	spotsGauge, err := meter.Int64UpDownCounter("carpark_spots",
		metric.WithDescription("Current number of parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("carpark_operation_duration_seconds",
		metric.WithDescription("Duration of car park operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	icp := &InstrumentedCarPark{
		CarPark:           carPark,
		telemetry:         telemetry,
		publisher:         publisher,
		operations:        operations,
		occupancyGauge:    occupancyGauge,
		spotsGauge:        spotsGauge,
		operationDuration: operationDuration,
	}

	// Seed gauges with whatever the registry already holds.
	stats := carPark.Stats()
	spotsGauge.Add(context.Background(), int64(stats.Total))
	occupancyGauge.Add(context.Background(), int64(stats.Occupied))

	return icp, nil
}

func (icp *InstrumentedCarPark) AddSpot(ctx context.Context, spotID string) error {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.add_spot",
		trace.WithAttributes(attribute.String("spot.id", spotID)))
	defer span.End()
	start := time.Now()

	err := icp.CarPark.AddSpot(spotID)

	icp.finish(ctx, span, "add_spot", start, err)
	if err == nil {
		icp.spotsGauge.Add(ctx, 1)
		span.AddEvent("spot_added")
		icp.publish(ctx, events.Event{Type: events.SpotAdded, SpotID: spotID})
	}
	return err
}

func (icp *InstrumentedCarPark) DeleteSpot(ctx context.Context, spotID string) error {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.delete_spot",
		trace.WithAttributes(attribute.String("spot.id", spotID)))
	defer span.End()
	start := time.Now()

	err := icp.CarPark.DeleteSpot(spotID)

	icp.finish(ctx, span, "delete_spot", start, err)
	if err == nil {
		icp.spotsGauge.Add(ctx, -1)
		span.AddEvent("spot_deleted")
		icp.publish(ctx, events.Event{Type: events.SpotDeleted, SpotID: spotID})
	}
	return err
}

func (icp *InstrumentedCarPark) FindSpot(ctx context.Context, spotID string) (SpotInfo, error) {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.find_spot",
		trace.WithAttributes(attribute.String("spot.id", spotID)))
	defer span.End()
	start := time.Now()

	spot, err := icp.CarPark.FindSpot(spotID)

	icp.finish(ctx, span, "find_spot", start, err)
	if err == nil {
		span.SetAttributes(attribute.Bool("spot.occupied", spot.Occupied))
	}
	return spot, err
}

func (icp *InstrumentedCarPark) ListSpots(ctx context.Context) []SpotInfo {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.list_spots")
	defer span.End()
	start := time.Now()

	spots := icp.CarPark.ListSpots()

	span.SetAttributes(attribute.Int("spots.count", len(spots)))
	icp.finish(ctx, span, "list_spots", start, nil)
	return spots
}

func (icp *InstrumentedCarPark) ParkCar(ctx context.Context, vehicle *Vehicle, spotID string) error {
	ctx, span := icp.startPark(ctx, "carpark.park_car", vehicle, spotID)
	defer span.End()
	start := time.Now()

	err := icp.CarPark.ParkCar(vehicle, spotID)

	icp.finish(ctx, span, "park_car", start, err)
	if err == nil {
		icp.parked(ctx, span, vehicle, spotID)
	}
	return err
}

// AddSpotAndPark is ParkCar that first creates a missing spot.
func (icp *InstrumentedCarPark) AddSpotAndPark(ctx context.Context, vehicle *Vehicle, spotID string) (bool, error) {
	ctx, span := icp.startPark(ctx, "carpark.add_spot_and_park", vehicle, spotID)
	defer span.End()
	start := time.Now()

	created, err := icp.CarPark.AddSpotAndPark(vehicle, spotID)

	span.SetAttributes(attribute.Bool("spot.created", created))
	icp.finish(ctx, span, "add_spot_and_park", start, err)
	if err == nil {
		if created {
			icp.spotsGauge.Add(ctx, 1)
			icp.publish(ctx, events.Event{Type: events.SpotAdded, SpotID: spotID})
		}
		icp.parked(ctx, span, vehicle, spotID)
	}
	return created, err
}

func (icp *InstrumentedCarPark) startPark(ctx context.Context, name string, vehicle *Vehicle, spotID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("spot.id", spotID)}
	if vehicle != nil {
		attrs = append(attrs,
			attribute.String("vehicle.registration_number", vehicle.RegistrationNumber),
			attribute.String("vehicle.make", vehicle.Make),
		)
	}
	return icp.telemetry.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (icp *InstrumentedCarPark) parked(ctx context.Context, span trace.Span, vehicle *Vehicle, spotID string) {
	icp.occupancyGauge.Add(ctx, 1)
	span.AddEvent("car_parked", trace.WithAttributes(attribute.String("spot.id", spotID)))
	icp.publish(ctx, events.Event{
		Type:         events.CarParked,
		SpotID:       spotID,
		Registration: vehicle.RegistrationNumber,
		Make:         vehicle.Make,
		Model:        vehicle.Model,
		Year:         vehicle.Year,
	})
}

func (icp *InstrumentedCarPark) RemoveCarByRegistration(ctx context.Context, registrationNumber string) (string, *Vehicle, error) {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.remove_car",
		trace.WithAttributes(attribute.String("vehicle.registration_number", registrationNumber)))
	defer span.End()
	start := time.Now()

	spotID, vehicle, err := icp.CarPark.RemoveCarByRegistration(registrationNumber)

	icp.finish(ctx, span, "remove_car", start, err)
	if err == nil {
		icp.occupancyGauge.Add(ctx, -1)
		span.SetAttributes(attribute.String("spot.id", spotID))
		span.AddEvent("car_removed")
		icp.publish(ctx, events.Event{
			Type:         events.CarRemoved,
			SpotID:       spotID,
			Registration: vehicle.RegistrationNumber,
			Make:         vehicle.Make,
			Model:        vehicle.Model,
			Year:         vehicle.Year,
		})
	}
	return spotID, vehicle, err
}

func (icp *InstrumentedCarPark) FindByRegistration(ctx context.Context, registrationNumber string) (SpotInfo, error) {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.find_by_registration",
		trace.WithAttributes(attribute.String("vehicle.registration_number", registrationNumber)))
	defer span.End()
	start := time.Now()

	spot, err := icp.CarPark.FindByRegistration(registrationNumber)

	icp.finish(ctx, span, "find_by_registration", start, err)
	if err == nil {
		span.SetAttributes(attribute.String("spot.id", spot.ID))
	}
	return spot, err
}

func (icp *InstrumentedCarPark) FindByMake(ctx context.Context, vehicleMake string) []SpotInfo {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.find_by_make",
		trace.WithAttributes(attribute.String("vehicle.make", vehicleMake)))
	defer span.End()
	start := time.Now()

	spots := icp.CarPark.FindByMake(vehicleMake)

	span.SetAttributes(attribute.Int("spots.count", len(spots)))
	icp.finish(ctx, span, "find_by_make", start, nil)
	return spots
}

func (icp *InstrumentedCarPark) Reset(ctx context.Context) Stats {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "carpark.reset")
	defer span.End()
	start := time.Now()

	discarded := icp.CarPark.Reset()

	icp.spotsGauge.Add(ctx, -int64(discarded.Total))
	icp.occupancyGauge.Add(ctx, -int64(discarded.Occupied))
	span.SetAttributes(
		attribute.Int("spots.discarded", discarded.Total),
		attribute.Int("cars.discarded", discarded.Occupied),
	)
	icp.finish(ctx, span, "reset", start, nil)
	logging.Info(ctx).
		Int("spots", discarded.Total).
		Int("cars", discarded.Occupied).
		Msg("car park reset")
	icp.publish(ctx, events.Event{Type: events.Reset})
	return discarded
}

func (icp *InstrumentedCarPark) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", StatusOf(err)),
	}

	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, ErrNotFound) {
			span.SetStatus(codes.Error, err.Error())
		}
		logging.Warn(ctx).Err(err).Str("operation", operation).Msg("car park operation rejected")
	} else {
		logging.Debug(ctx).Str("operation", operation).Float64("duration_s", duration).Msg("car park operation")
	}

	icp.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	icp.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
}

func (icp *InstrumentedCarPark) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = icp.CarPark.Now().UTC()
	if err := icp.publisher.Publish(ctx, event); err != nil {
		logging.Error(ctx).Err(err).Str("event", string(event.Type)).Msg("failed to publish event")
	}
}

// StatusOf maps an operation result to a low-cardinality status label.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSpotOccupied):
		return "spot_occupied"
	case errors.Is(err, ErrDuplicateRegistration):
		return "duplicate_registration"
	default:
		return "failed"
	}
}
