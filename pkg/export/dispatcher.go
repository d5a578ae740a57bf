package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fleetdesk/exporter/pkg/record"
)

const tracerName = "fleetdesk/exporter/pkg/export"

// Config contains configuration for a Dispatcher.
type Config struct {
	// DefaultFileName is used when a caller passes an empty file name.
	// Default: "export"
	DefaultFileName string

	// JSONPretty enables 2-space indentation of JSON artifacts.
	// Default: true
	JSONPretty bool

	// CSVUseCRLF terminates CSV lines with \r\n.
	// Default: false
	CSVUseCRLF bool

	// PDF configures the PDF table encoder.
	PDF PDFConfig
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultFileName: DefaultFileName,
		JSONPretty:      true,
		PDF:             DefaultPDFConfig(),
	}
}

// Outcome describes a finished export call. It is handed to every Observer,
// whether the call succeeded or not.
type Outcome struct {
	JobID           string
	Format          Format // Empty when the requested format was rejected
	RequestedFormat string
	FileName        string
	Records         int
	Columns         int
	Bytes           int
	Delivered       bool
	Started         time.Time
	Duration        time.Duration
	Err             error
}

// Status classifies the outcome for metrics and history.
func (o *Outcome) Status() string { return Classify(o.Err) }

// Observer is notified after every export call.
type Observer interface {
	ObserveExport(ctx context.Context, o *Outcome)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, o *Outcome)

// ObserveExport calls f(ctx, o).
func (f ObserverFunc) ObserveExport(ctx context.Context, o *Outcome) { f(ctx, o) }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSink sets the sink used by Export.
func WithSink(s Sink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// WithObserver adds an observer. Observers run synchronously in the order
// they were added.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observers = append(d.observers, o) }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithEncoder replaces the encoder for one format.
func WithEncoder(f Format, e Encoder) Option {
	return func(d *Dispatcher) { d.encoders[f] = e }
}

// WithRenderer sets the table renderer of the PDF encoder.
func WithRenderer(r TableRenderer) Option {
	return func(d *Dispatcher) { d.encoders[FormatPDF] = NewPDFEncoder(d.config.PDF, r) }
}

// Dispatcher is the public entry point of the package: it validates input,
// selects an encoder by format and hands the artifact to a Sink.
//
// A Dispatcher holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	config    *Config
	encoders  map[Format]Encoder
	sink      Sink
	observers []Observer
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(config *Config, opts ...Option) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}

	d := &Dispatcher{
		config: config,
		encoders: map[Format]Encoder{
			FormatCSV:  NewCSVEncoder(config.CSVUseCRLF),
			FormatJSON: NewJSONEncoder(config.JSONPretty),
			FormatPDF:  NewPDFEncoder(config.PDF, nil),
		},
		tracer: otel.Tracer(tracerName),
		logger: slog.Default().With("component", "export.dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Encode validates input and format and encodes the records into an
// artifact. Nothing is delivered.
func (d *Dispatcher) Encode(ctx context.Context, input any, format, filename string) (*Artifact, error) {
	out := d.begin(format, filename)
	a, err := d.encode(ctx, out, input, format, filename)
	d.finish(ctx, out, err)
	return a, err
}

// Export encodes input and delivers the artifact to the configured sink.
// It returns ErrNoSink if the dispatcher has none.
func (d *Dispatcher) Export(ctx context.Context, input any, format, filename string) error {
	if d.sink == nil {
		return ErrNoSink
	}
	return d.ExportTo(ctx, d.sink, input, format, filename)
}

// ExportTo is Export with an explicit sink. The sink is only invoked after
// validation and encoding have both succeeded.
func (d *Dispatcher) ExportTo(ctx context.Context, sink Sink, input any, format, filename string) error {
	if sink == nil {
		return ErrNoSink
	}

	out := d.begin(format, filename)
	a, err := d.encode(ctx, out, input, format, filename)
	if err == nil {
		err = d.deliver(ctx, out, sink, a)
	}
	d.finish(ctx, out, err)
	return err
}

func (d *Dispatcher) begin(format, filename string) *Outcome {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Outcome{
		JobID:           id.String(),
		RequestedFormat: format,
		FileName:        filename,
		Started:         time.Now(),
	}
}

func (d *Dispatcher) encode(ctx context.Context, out *Outcome, input any, format, filename string) (*Artifact, error) {
	ctx, span := d.tracer.Start(ctx, "export.encode",
		trace.WithAttributes(
			attribute.String("export.job_id", out.JobID),
			attribute.String("export.format", format),
		),
	)
	defer span.End()

	records, err := record.Normalize(input)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out.Records = len(records)

	f, err := ParseFormat(format)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out.Format = f

	if filename == "" {
		filename = d.config.DefaultFileName
	}
	out.FileName = f.FileName(filename)

	enc, ok := d.encoders[f]
	if !ok {
		err := &UnsupportedFormatError{Format: format}
		recordSpanError(span, err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := enc.Encode(ctx, records, &buf); err != nil {
		var exportErr *ExportError
		if !errors.As(err, &exportErr) {
			err = NewExportError(f, len(records), err)
		}
		recordSpanError(span, err)
		return nil, err
	}

	a := &Artifact{
		Name:     out.FileName,
		MIMEType: f.MIMEType(),
		Format:   f,
		Body:     buf.Bytes(),
		Records:  len(records),
	}
	if f != FormatJSON {
		a.Columns = len(record.CollectHeaders(records))
	}
	out.Columns = a.Columns
	out.Bytes = a.Size()

	span.SetAttributes(
		attribute.Int("export.records", a.Records),
		attribute.Int("export.bytes", a.Size()),
	)
	return a, nil
}

func (d *Dispatcher) deliver(ctx context.Context, out *Outcome, sink Sink, a *Artifact) error {
	ctx, span := d.tracer.Start(ctx, "export.deliver",
		trace.WithAttributes(
			attribute.String("export.job_id", out.JobID),
			attribute.String("export.file_name", a.Name),
		),
	)
	defer span.End()

	if err := sink.Deliver(ctx, a); err != nil {
		recordSpanError(span, err)
		return err
	}
	out.Delivered = true
	return nil
}

func (d *Dispatcher) finish(ctx context.Context, out *Outcome, err error) {
	out.Duration = time.Since(out.Started)
	out.Err = err

	if err != nil {
		d.logger.WarnContext(ctx, "export failed",
			"job_id", out.JobID,
			"format", out.RequestedFormat,
			"status", out.Status(),
			"error", err,
		)
	} else {
		d.logger.DebugContext(ctx, "export completed",
			"job_id", out.JobID,
			"format", out.Format,
			"file_name", out.FileName,
			"records", out.Records,
			"bytes", out.Bytes,
			"delivered", out.Delivered,
			"duration", out.Duration,
		)
	}

	for _, o := range d.observers {
		o.ObserveExport(ctx, out)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
