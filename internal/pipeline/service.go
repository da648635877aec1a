package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/cache"
	"github.com/bighogz/insider-ledger/internal/logging"
	"github.com/bighogz/insider-ledger/internal/models"
	"github.com/bighogz/insider-ledger/internal/normalize"
	"github.com/bighogz/insider-ledger/internal/report"
	"github.com/bighogz/insider-ledger/internal/telemetry"
)

type NoticeLevel string

const (
	LevelInfo  NoticeLevel = "info"
	LevelError NoticeLevel = "error"
)

type NoticeKind string

const (
	KindValidation NoticeKind = "validation"
	KindNoData     NoticeKind = "no_data"
	KindTransport  NoticeKind = "transport"
	KindSchema     NoticeKind = "schema"
	KindInternal   NoticeKind = "internal"
)

// Notice is the single user-visible message attached to a report.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Kind    NoticeKind  `json:"kind"`
	Message string      `json:"message"`
}

// Report is what Analyze hands to display and export collaborators. Result
// always holds four (possibly empty) tables; on failure they are all empty.
type Report struct {
	Ticker      string
	Cutoff      time.Time
	Source      string // which data source answered, when known
	Result      models.Result
	Notice      *Notice
	Cached      bool
	GeneratedAt time.Time
	Err         error
}

func (r Report) Tables() report.Tables { return report.Build(r.Result) }

// computation is the cached unit: the result plus the size of the record set
// it came from, so a cache hit can still raise the no-data notice.
type computation struct {
	Result  models.Result
	Records int
	Source  string
}

type Options struct {
	Cache          cache.Options
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

type Service struct {
	fetcher  Fetcher
	cache    *cache.Cache[computation]
	logger   *zap.Logger
	tracer   trace.Tracer
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

func NewService(f Fetcher, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	s := &Service{
		fetcher: f,
		cache:   cache.New[computation](opts.Cache),
		logger:  opts.Logger.Named("pipeline"),
		tracer:  opts.TracerProvider.Tracer(telemetry.InstrumentationName),
	}

	meter := opts.MeterProvider.Meter(telemetry.InstrumentationName)
	var err error
	s.runs, err = meter.Int64Counter("insider_pipeline_runs",
		metric.WithDescription("Insider pipeline requests by outcome"))
	if err != nil {
		s.logger.Warn("pipeline runs counter unavailable", zap.Error(err))
		s.runs = noop.Int64Counter{}
	}
	s.duration, err = meter.Float64Histogram("insider_pipeline_duration_seconds",
		metric.WithDescription("Insider pipeline request duration"),
		metric.WithUnit("s"))
	if err != nil {
		s.logger.Warn("pipeline duration histogram unavailable", zap.Error(err))
		s.duration = noop.Float64Histogram{}
	}
	return s
}

// NormalizeTicker trims and uppercases a user-entered symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// CacheKey identifies a result: the same ticker with a different cutoff is a
// different result.
func CacheKey(ticker string, cutoff time.Time) string {
	return NormalizeTicker(ticker) + "|" + cutoff.Format(report.DateLayout)
}

// Analyze runs the pipeline for one ticker, reading through the result cache.
// Failures never escape: they become an error notice next to four empty
// tables.
func (s *Service) Analyze(ctx context.Context, ticker string, cutoff time.Time) Report {
	start := time.Now()
	sym := NormalizeTicker(ticker)
	cutoff = normalize.Day(cutoff)
	rep := Report{Ticker: sym, Cutoff: cutoff, Result: models.Empty()}

	if sym == "" {
		rep.Err = ErrEmptyTicker
		rep.Notice = &Notice{Level: LevelError, Kind: KindValidation, Message: "Please enter a ticker symbol."}
		s.record(ctx, "validation", false, start)
		return rep
	}

	ctx, span := s.tracer.Start(ctx, "pipeline.Analyze", trace.WithAttributes(
		attribute.String("ticker", sym),
		attribute.String("cutoff", cutoff.Format(report.DateLayout)),
	))
	defer span.End()
	log := logging.FromContext(ctx, s.logger).With(zap.String("ticker", sym))

	entry, hit, err := s.cache.GetOrCompute(ctx, CacheKey(sym, cutoff), func(ctx context.Context) (computation, error) {
		return s.compute(ctx, sym, cutoff)
	})
	if err != nil {
		rep.Err = err
		rep.Notice = noticeFor(sym, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(rep.Notice.Kind))
		log.Warn("insider pipeline failed", zap.String("kind", string(rep.Notice.Kind)), zap.Error(err))
		s.record(ctx, string(rep.Notice.Kind), false, start)
		return rep
	}

	rep.Result = entry.Value.Result
	rep.Source = entry.Value.Source
	rep.Cached = hit
	rep.GeneratedAt = entry.StoredAt
	outcome := "ok"
	if entry.Value.Records == 0 {
		outcome = string(KindNoData)
		rep.Notice = &Notice{
			Level:   LevelInfo,
			Kind:    KindNoData,
			Message: fmt.Sprintf("No insider transactions found for ticker %s.", sym),
		}
	}
	span.SetAttributes(
		attribute.Bool("cache.hit", hit),
		attribute.Int("sales", len(rep.Result.SaleEvents)),
		attribute.Int("purchases", len(rep.Result.PurchaseEvents)),
	)
	s.record(ctx, outcome, hit, start)
	return rep
}

// Invalidate drops the cached result for ticker and cutoff.
func (s *Service) Invalidate(ticker string, cutoff time.Time) {
	s.cache.Invalidate(CacheKey(ticker, normalize.Day(cutoff)))
}

// Purge drops every cached result.
func (s *Service) Purge() {
	s.cache.Purge()
}

// CacheStats describes the result cache for health output.
type CacheStats struct {
	Enabled bool `json:"enabled"`
	Entries int  `json:"entries"`
}

func (s *Service) CacheStats() CacheStats {
	return CacheStats{Enabled: s.cache.Enabled(), Entries: s.cache.Len()}
}

func (s *Service) compute(ctx context.Context, sym string, cutoff time.Time) (computation, error) {
	fctx, span := s.tracer.Start(ctx, "pipeline.fetch", trace.WithAttributes(attribute.String("ticker", sym)))
	records, source, err := fetch(fctx, s.fetcher, sym)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		span.End()
		return computation{}, &TransportError{Ticker: sym, Err: err}
	}
	span.SetAttributes(attribute.Int("records", len(records)), attribute.String("source", source))
	span.End()

	res, stats, err := Run(records, cutoff)
	if err != nil {
		return computation{}, err
	}
	logging.FromContext(ctx, s.logger).Debug("insider pipeline computed",
		zap.String("ticker", sym),
		zap.String("source", source),
		zap.Int("records", stats.Input),
		zap.Int("bad_dates", stats.BadDates),
		zap.Int("unclassified", stats.Unclassified),
		zap.Int("before_cutoff", stats.BeforeCutoff),
		zap.Int("sales", len(res.SaleEvents)),
		zap.Int("purchases", len(res.PurchaseEvents)),
	)
	return computation{Result: res, Records: len(records), Source: source}, nil
}

func (s *Service) record(ctx context.Context, outcome string, hit bool, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome), attribute.Bool("cache_hit", hit))
	s.runs.Add(ctx, 1, attrs)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func noticeFor(sym string, err error) *Notice {
	var te *TransportError
	switch {
	case errors.As(err, &te):
		return &Notice{Level: LevelError, Kind: KindTransport,
			Message: fmt.Sprintf("Could not load insider transactions for %s: %v", sym, te.Err)}
	case errors.Is(err, normalize.ErrSchema):
		return &Notice{Level: LevelError, Kind: KindSchema,
			Message: fmt.Sprintf("Unexpected insider data format for %s: %v", sym, err)}
	default:
		return &Notice{Level: LevelError, Kind: KindInternal,
			Message: fmt.Sprintf("Error loading data for %s: %v", sym, err)}
	}
}
