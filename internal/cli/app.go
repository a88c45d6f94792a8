package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"car-park/internal/carpark"
	"car-park/internal/config"
	"car-park/internal/events"
	"car-park/internal/logging"
)

// app holds everything a command needs: one registry shared by the shell
// and the HTTP server.
type app struct {
	cfg       *config.Config
	telemetry *carpark.TelemetryProvider
	publisher events.Publisher
	carPark   *carpark.InstrumentedCarPark
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	logging.Init(logOut, cfg.IsDevelopment())

	telemetry, err := newTelemetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(ctx, events.AMQPConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
		})
		if err != nil {
			_ = telemetry.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to connect event publisher: %w", err)
		}
		publisher = p
		logging.Info(ctx).Str("exchange", cfg.AMQPExchange).Msg("publishing car park events")
	}

	carPark, err := carpark.NewInstrumentedCarPark(carpark.NewCarPark(), telemetry, publisher)
	if err != nil {
		_ = publisher.Close()
		_ = telemetry.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create car park: %w", err)
	}

	return &app{
		cfg:       cfg,
		telemetry: telemetry,
		publisher: publisher,
		carPark:   carPark,
	}, nil
}

func newTelemetry(ctx context.Context, cfg *config.Config) (*carpark.TelemetryProvider, error) {
	if !cfg.TelemetryEnabled {
		return carpark.NewTelemetryProviderFrom(cfg.OTelServiceName, nil, nil), nil
	}
	return carpark.NewTelemetryProvider(ctx, carpark.TelemetryConfig{
		ServiceName:  cfg.OTelServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		FromEnv:      true,
	})
}

func (a *app) close() {
	logging.Logger().Info().Msg("shutting down telemetry and event publisher")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := errors.Join(a.publisher.Close(), a.telemetry.Shutdown(ctx)); err != nil {
		logging.Logger().Error().Err(err).Msg("shutdown error")
	}
}
