package arbiter

import (
	"github.com/viant/arbiter/ledger"
	"github.com/viant/arbiter/model/resource"
	"github.com/viant/arbiter/service/dao"
	"github.com/viant/arbiter/state"
	"github.com/viant/arbiter/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option mutates the Service during construction.
type Option func(s *Service)

// WithConfig replaces the whole configuration; absent fields keep package
// defaults.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLedger injects a pre-populated ledger (for example one restored from a
// checkpoint by the caller).
func WithLedger(l *ledger.Ledger[resource.Handle]) Option {
	return func(s *Service) { s.ledger = l }
}

// WithCheckpointDAO sets the checkpoint store.
func WithCheckpointDAO(service dao.Service[string, state.Checkpoint]) Option {
	return func(s *Service) { s.checkpointDAO = service }
}

// WithMaxSyscallNum sizes every task's syscall counter table.
func WithMaxSyscallNum(n int) Option {
	return func(s *Service) { s.config.Task.MaxSyscallNum = n }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
