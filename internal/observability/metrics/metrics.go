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
	clientsRegistered metric.Int64Counter
	contractsCreated  metric.Int64Counter
	contractsSigned   metric.Int64Counter
	contractsRetired  metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
	paymentsVoided    metric.Int64Counter
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

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "licenta"
	}
	meter := provider.Meter(name)

	clientsRegistered, err := meter.Int64Counter("licenta_clients_registered_total")
	if err != nil {
		return nil, err
	}
	contractsCreated, err := meter.Int64Counter("licenta_contracts_created_total")
	if err != nil {
		return nil, err
	}
	contractsSigned, err := meter.Int64Counter("licenta_contracts_signed_total")
	if err != nil {
		return nil, err
	}
	contractsRetired, err := meter.Int64Counter("licenta_contracts_retired_total")
	if err != nil {
		return nil, err
	}
	paymentsRecorded, err := meter.Int64Counter("licenta_payments_recorded_total")
	if err != nil {
		return nil, err
	}
	paymentsVoided, err := meter.Int64Counter("licenta_payments_voided_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		clientsRegistered: clientsRegistered,
		contractsCreated:  contractsCreated,
		contractsSigned:   contractsSigned,
		contractsRetired:  contractsRetired,
		paymentsRecorded:  paymentsRecorded,
		paymentsVoided:    paymentsVoided,
	}, nil
}

// RecordClientRegistered increments the registration count per client kind.
func (m *Metrics) RecordClientRegistered(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.clientsRegistered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", strings.ToLower(strings.TrimSpace(kind))),
	))
}

// RecordContractCreated increments contract creation counts per type.
func (m *Metrics) RecordContractCreated(ctx context.Context, contractType string, discounted bool) {
	if m == nil {
		return
	}
	m.contractsCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", strings.ToLower(strings.TrimSpace(contractType))),
		attribute.Bool("discounted", discounted),
	))
}

// RecordContractSigned increments the signed-contract count.
func (m *Metrics) RecordContractSigned(ctx context.Context) {
	if m == nil {
		return
	}
	m.contractsSigned.Add(ctx, 1)
}

// RecordContractRetired increments terminal transitions per outcome.
func (m *Metrics) RecordContractRetired(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.contractsRetired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.ToLower(strings.TrimSpace(outcome))),
	))
}

// RecordPaymentRecorded increments payment counts, split by whether the
// payment settled the contract.
func (m *Metrics) RecordPaymentRecorded(ctx context.Context, settled bool) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("settled", settled),
	))
}

// RecordPaymentVoided increments the voided-payment count.
func (m *Metrics) RecordPaymentVoided(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentsVoided.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
