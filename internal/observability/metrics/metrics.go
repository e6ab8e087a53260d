package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	lifecycleEvents  metric.Int64Counter
	checkoutSessions metric.Int64Counter
	cancellations    metric.Int64Counter
	deliveries       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "storefront"
	}
	meter := provider.Meter(name)

	lifecycleEvents, err := meter.Int64Counter("storefront_lifecycle_events_total")
	if err != nil {
		return nil, err
	}
	checkoutSessions, err := meter.Int64Counter("storefront_checkout_sessions_total")
	if err != nil {
		return nil, err
	}
	cancellations, err := meter.Int64Counter("storefront_cancellations_total")
	if err != nil {
		return nil, err
	}
	deliveries, err := meter.Int64Counter("storefront_deliveries_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		lifecycleEvents:  lifecycleEvents,
		checkoutSessions: checkoutSessions,
		cancellations:    cancellations,
		deliveries:       deliveries,
	}, nil
}

// RecordLifecycleEvent increments processed webhook event counts.
func (m *Metrics) RecordLifecycleEvent(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.lifecycleEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", strings.TrimSpace(eventType)),
	))
}

// RecordCheckoutSession increments opened checkout session counts.
func (m *Metrics) RecordCheckoutSession(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.checkoutSessions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", strings.TrimSpace(tier)),
	))
}

// RecordCancellation increments cancellation attempt counts by outcome.
func (m *Metrics) RecordCancellation(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.cancellations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", strings.TrimSpace(status)),
	))
}

// RecordDelivery increments logged delivery counts.
func (m *Metrics) RecordDelivery(ctx context.Context) {
	if m == nil {
		return
	}
	m.deliveries.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
