// Package pipeline runs detection and conversion for single files and for
// batches of files with bounded parallelism.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/encodingman/encodingman/pkg/config"
	"github.com/encodingman/encodingman/pkg/convert"
	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
	"github.com/encodingman/encodingman/pkg/tempfile"
	"github.com/encodingman/encodingman/pkg/validation"
)

const tracerName = "github.com/encodingman/encodingman/pkg/pipeline"

// Confirmer asks whether a low-confidence winner may be used. It returns
// the candidate to convert with, or ok=false when the user declines.
type Confirmer interface {
	Confirm(ctx context.Context, res *detect.Result) (c detect.Candidate, ok bool, err error)
}

// OutputAllocator hands out fresh output paths.
type OutputAllocator interface {
	Reserve(original, target string) (string, error)
}

// Pipeline processes one file at a time. All per-file state lives on the
// stack of a single call, so one Pipeline may serve many goroutines.
type Pipeline struct {
	cfg       config.Config
	target    convert.Target
	registry  *detect.Registry
	detector  *detect.Detector
	converter *convert.Converter
	outputs   OutputAllocator
	confirmer Confirmer
	log       logrus.FieldLogger
	tracer    trace.Tracer

	hinter    detect.Hinter
	hinterSet bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutputs sets the output path allocator.
func WithOutputs(a OutputAllocator) Option {
	return func(p *Pipeline) { p.outputs = a }
}

// WithConfirmer sets the collaborator asked in threshold mode.
func WithConfirmer(c Confirmer) Option {
	return func(p *Pipeline) { p.confirmer = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithTracer sets the tracer for per-file spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithRegistry sets the strategy registry.
func WithRegistry(r *detect.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithHinter sets the statistical hinter. nil disables hints.
func WithHinter(h detect.Hinter) Option {
	return func(p *Pipeline) {
		p.hinter = h
		p.hinterSet = true
	}
}

// New creates a pipeline working from one configuration snapshot.
// An unsupported target is rejected here, before any file is touched.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, err := convert.ParseTarget(cfg.TargetEncoding)
	if err != nil {
		return nil, err
	}
	mode, err := detect.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	p := &Pipeline{
		cfg:      cfg,
		target:   target,
		registry: detect.DefaultRegistry,
		log:      discard,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.outputs == nil {
		p.outputs = tempfile.NewManager(cfg.TempDir, cfg.KeepTempFile)
	}
	p.detector = detect.NewDetector(detect.Options{
		Registry: p.registry,
		Hinter:   p.hinter,
		NoHint:   p.hinterSet && p.hinter == nil,
		Selector: detect.Selector{Mode: mode, Threshold: cfg.ConfidenceThreshold},
	})
	p.converter = convert.New(p.registry)

	return p, nil
}

// Target returns the configured target encoding.
func (p *Pipeline) Target() convert.Target {
	return p.target
}

// Config returns the snapshot the pipeline works from.
func (p *Pipeline) Config() config.Config {
	return p.cfg.Clone()
}

// Detect reads and classifies a file and ranks its candidates without
// converting it.
func (p *Pipeline) Detect(ctx context.Context, path string) (*detect.Result, detect.Decision, error) {
	_, span := p.tracer.Start(ctx, "pipeline.detect",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	data, err := validation.ReadSource(path)
	if err != nil {
		span.RecordError(err)
		return nil, detect.AutoConvert, err
	}
	return p.detector.Detect(path, data, p.cfg.PreviewLines)
}

// Process runs the full detect-and-convert flow for one file. Failures are
// reported in the outcome, never returned or panicked.
func (p *Pipeline) Process(ctx context.Context, path string) FileOutcome {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	out := p.process(ctx, path)
	out.Duration = time.Since(start)
	p.record(span, out)
	return out
}

func (p *Pipeline) process(ctx context.Context, path string) FileOutcome {
	out := FileOutcome{Path: path}

	data, err := validation.ReadSource(path)
	if err != nil {
		return p.fail(out, err)
	}

	res, decision, err := p.detector.Detect(path, data, p.cfg.PreviewLines)
	if err != nil {
		return p.fail(out, err)
	}
	out.Detection = res
	out.Decision = decision

	if res.Class == detect.ClassBinary {
		out.Tag = TagBinary
		p.log.WithField("path", path).Debug("binary file passed through")
		return out
	}
	if len(data) == 0 || p.target.Matches(res.Winner.Candidate) {
		out.Tag = TagAlreadyTarget
		return out
	}

	chosen := res.Winner.Candidate
	if decision == detect.NeedsConfirmation && p.confirmer != nil {
		c, ok, err := p.confirmer.Confirm(ctx, res)
		if err != nil {
			return p.fail(out, errors.Wrap(err, errors.CodeCanceled, "confirmation failed"))
		}
		if !ok {
			return p.fail(out, errors.New(errors.CodeCanceled, "conversion declined"))
		}
		chosen = c
		if p.target.Matches(chosen) {
			out.Tag = TagAlreadyTarget
			return out
		}
	}

	return p.convert(out, data, chosen, "")
}

// ConvertWith converts a file from an explicitly chosen source encoding,
// bypassing detection. Binary files are still refused.
func (p *Pipeline) ConvertWith(ctx context.Context, path string, source detect.Candidate) FileOutcome {
	return p.ConvertTo(ctx, path, source, "")
}

// ConvertTo is ConvertWith writing to an explicit output path instead of a
// reserved temporary one. The output must not exist yet.
func (p *Pipeline) ConvertTo(ctx context.Context, path string, source detect.Candidate, output string) FileOutcome {
	start := time.Now()
	_, span := p.tracer.Start(ctx, "pipeline.convert",
		trace.WithAttributes(
			attribute.String("file.path", path),
			attribute.String("encoding.source", source.Name),
		))
	defer span.End()

	out := FileOutcome{Path: path}
	data, err := validation.ReadSource(path)
	switch {
	case err != nil:
		out = p.fail(out, err)
	case detect.ClassifyPath(path, data) == detect.ClassBinary:
		out.Tag = TagBinary
	case len(data) == 0 || p.target.Matches(source):
		out.Tag = TagAlreadyTarget
	default:
		out = p.convert(out, data, source, output)
	}

	out.Duration = time.Since(start)
	p.record(span, out)
	return out
}

func (p *Pipeline) convert(out FileOutcome, data []byte, source detect.Candidate, output string) FileOutcome {
	log := p.log.WithFields(logrus.Fields{
		"path":     out.Path,
		"encoding": source.Name,
		"target":   p.target.String(),
	})

	res, err := p.converter.Convert(data, source, p.target)
	if err != nil {
		return p.fail(out, err)
	}
	if !res.Changed {
		out.Tag = TagAlreadyTarget
		return out
	}

	if output == "" {
		output, err = p.outputs.Reserve(out.Path, p.target.String())
		if err != nil {
			return p.fail(out, errors.UnwritableOutput(out.Path, err))
		}
	}
	if err := convert.WriteFile(out.Path, output, res.Data); err != nil {
		return p.fail(out, err)
	}

	out.Tag = TagConverted
	out.Conversion = &convert.Outcome{
		Source:     source,
		Target:     p.target,
		OutputPath: output,
		Changed:    true,
		Lossy:      res.Lossy,
		Bytes:      len(res.Data),
	}
	out.Preview = p.preview(res.Data)

	if res.Lossy > 0 {
		log.WithField("lossy", res.Lossy).Warn("characters not representable in target were substituted")
	}
	if res.Replaced > 0 {
		log.WithField("replacements", res.Replaced).Warn("source contained undecodable bytes")
	}
	log.WithField("output", output).Info("converted")
	return out
}

// preview decodes the first lines of converted bytes.
func (p *Pipeline) preview(data []byte) []string {
	if p.cfg.PreviewLines <= 0 {
		return nil
	}
	dec, err := p.registry.Decode(data, p.target.Candidate())
	if err != nil {
		return nil
	}
	return detect.PreviewLines(dec.Text, p.cfg.PreviewLines)
}

func (p *Pipeline) fail(out FileOutcome, err error) FileOutcome {
	out.Tag = TagError
	out.Err = err
	out.Message = errors.Message(err)
	p.log.WithFields(logrus.Fields{
		"path": out.Path,
		"code": string(errors.CodeOf(err)),
	}).Error(out.Message)
	return out
}

// record annotates the span with the outcome.
func (p *Pipeline) record(span trace.Span, out FileOutcome) {
	span.SetAttributes(attribute.String("outcome", out.Tag.String()))
	if enc := out.Encoding(); enc != "" {
		span.SetAttributes(
			attribute.String("encoding", enc),
			attribute.Float64("confidence", out.Confidence()),
		)
	}
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Message)
	}
}
