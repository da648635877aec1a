package main

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/config"
	"github.com/bighogz/insider-ledger/internal/export"
	"github.com/bighogz/insider-ledger/internal/pipeline"
	"github.com/bighogz/insider-ledger/internal/report"
)

type healthResponse struct {
	Status string              `json:"status"`
	Cache  pipeline.CacheStats `json:"cache"`
}

// providerHealth lists the data sources in the order they are tried.
type providerHealth struct {
	Sources       []string `json:"sources"`
	FMPConfigured bool     `json:"fmp_configured"`
}

type server struct {
	svc     *pipeline.Service
	cfg     *config.Config
	logger  *zap.Logger
	metrics http.Handler
	health  func() providerHealth

	validate *validator.Validate
}

type insidersRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
	Cutoff string `json:"cutoff" validate:"omitempty,datetime=2006-01-02"`
}

type exportRequest struct {
	insidersRequest
	Table  string `json:"table" validate:"required,oneof=sales purchases sales-by-insider purchases-by-insider"`
	Format string `json:"format" validate:"omitempty,oneof=xlsx csv"`
}

type reportResponse struct {
	Ticker      string           `json:"ticker"`
	Cutoff      string           `json:"cutoff"`
	Source      string           `json:"source,omitempty"`
	Tables      report.Tables    `json:"tables"`
	Notice      *pipeline.Notice `json:"notice,omitempty"`
	Cached      bool             `json:"cached"`
	GeneratedAt *time.Time       `json:"generated_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newReportResponse(rep pipeline.Report) reportResponse {
	out := reportResponse{
		Ticker: rep.Ticker,
		Cutoff: rep.Cutoff.Format(report.DateLayout),
		Source: rep.Source,
		Tables: rep.Tables(),
		Notice: rep.Notice,
		Cached: rep.Cached,
	}
	if !rep.GeneratedAt.IsZero() {
		t := rep.GeneratedAt.UTC()
		out.GeneratedAt = &t
	}
	return out
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", isValidTicker)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// isValidTicker allows 1-10 upper-case letters, digits, dots and dashes.
func isValidTicker(fl validator.FieldLevel) bool {
	ticker := fl.Field().String()
	if len(ticker) < 1 || len(ticker) > 10 {
		return false
	}
	for _, ch := range ticker {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '.' || ch == '-') {
			return false
		}
	}
	return true
}

func (s *server) routes() http.Handler {
	if s.validate == nil {
		s.validate = newValidator()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	limiter := newRateLimiter(s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/health/providers", s.handleProviderHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/insiders", func(r chi.Router) {
		r.Use(limiter.handler)
		r.Get("/", s.handleInsiders)
		r.Get("/{ticker}", s.handleInsiders)
		r.Get("/{ticker}/export/{table}", s.handleExport)
		r.Group(func(r chi.Router) {
			r.Use(adminOnly(s.cfg.Server.AdminAPIKey))
			r.Delete("/", s.handlePurge)
			r.Delete("/{ticker}/cache", s.handleInvalidate)
		})
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Cache: s.svc.CacheStats()})
}

func (s *server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		render.JSON(w, r, providerHealth{})
		return
	}
	render.JSON(w, r, s.health())
}

// handleInsiders serves the four tables for a ticker. Fetch and schema
// failures still answer 200: the notice carries the error and the tables are
// empty.
func (s *server) handleInsiders(w http.ResponseWriter, r *http.Request) {
	req := insidersRequest{Ticker: tickerParam(r), Cutoff: r.URL.Query().Get("cutoff")}
	cutoff, ok := s.bind(w, r, &req, req.Ticker, req.Cutoff)
	if !ok {
		return
	}
	render.JSON(w, r, newReportResponse(s.svc.Analyze(r.Context(), req.Ticker, cutoff)))
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := exportRequest{
		insidersRequest: insidersRequest{Ticker: tickerParam(r), Cutoff: q.Get("cutoff")},
		Table:           chi.URLParam(r, "table"),
		Format:          strings.ToLower(q.Get("format")),
	}
	cutoff, ok := s.bind(w, r, &req, req.Ticker, req.Cutoff)
	if !ok {
		return
	}
	kind, err := report.ParseKind(req.Table)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}

	rep := s.svc.Analyze(r.Context(), req.Ticker, cutoff)
	if rep.Err != nil {
		status := http.StatusInternalServerError
		var te *pipeline.TransportError
		if errors.As(rep.Err, &te) {
			status = http.StatusBadGateway
		}
		render.Status(r, status)
		render.JSON(w, r, newReportResponse(rep))
		return
	}

	tbl := rep.Tables().Table(kind)
	if req.Format == "csv" {
		w.Header().Set("Content-Type", export.ContentTypeCSV)
		w.Header().Set("Content-Disposition", attachment(export.Filename(rep.Ticker, kind, "csv")))
		if err := export.WriteCSV(w, tbl); err != nil {
			s.logger.Error("csv export", zap.String("ticker", rep.Ticker), zap.Error(err))
		}
		return
	}
	body, err := export.XLSX(tbl)
	if err != nil {
		s.logger.Error("xlsx export", zap.String("ticker", rep.Ticker), zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "could not build workbook"})
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", attachment(export.Filename(rep.Ticker, kind, "xlsx")))
	_, _ = w.Write(body)
}

func (s *server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	req := insidersRequest{Ticker: tickerParam(r), Cutoff: r.URL.Query().Get("cutoff")}
	cutoff, ok := s.bind(w, r, &req, req.Ticker, req.Cutoff)
	if !ok {
		return
	}
	s.svc.Invalidate(req.Ticker, cutoff)
	w.WriteHeader(http.StatusNoContent)
}

// handlePurge drops every cached report.
func (s *server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.svc.Purge()
	s.logger.Info("result cache purged")
	w.WriteHeader(http.StatusNoContent)
}

// bind validates req and resolves the cutoff, writing a 400 on failure. A
// blank ticker answers with the service's own validation report so the
// response still carries four empty tables.
func (s *server) bind(w http.ResponseWriter, r *http.Request, req interface{}, ticker, cutoff string) (time.Time, bool) {
	if ticker == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, newReportResponse(s.svc.Analyze(r.Context(), "", s.cfg.Pipeline.Cutoff)))
		return time.Time{}, false
	}
	if err := s.validate.Struct(req); err != nil {
		s.badRequest(w, r, validationMessage(err))
		return time.Time{}, false
	}
	if cutoff == "" {
		return s.cfg.Pipeline.Cutoff, true
	}
	t, err := config.ParseCutoff(cutoff)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return time.Time{}, false
	}
	return t, true
}

func (s *server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{Error: msg})
}

func tickerParam(r *http.Request) string {
	t := chi.URLParam(r, "ticker")
	if t == "" {
		t = r.URL.Query().Get("ticker")
	}
	return pipeline.NormalizeTicker(t)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "ticker":
		return fmt.Sprintf("invalid ticker symbol %q", fe.Value())
	case "datetime":
		return fmt.Sprintf("invalid cutoff date %q: want YYYY-MM-DD", fe.Value())
	case "oneof":
		return fmt.Sprintf("invalid %s %q: want one of %s", fe.Field(), fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("invalid %s", fe.Field())
	}
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
