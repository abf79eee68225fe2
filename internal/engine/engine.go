// Package engine orchestrates the risk analysis pipeline for one household:
// read the comparison window, compute the common-activity ratio, classify the
// tier, and — only for at-risk tiers — call the text model, decode the reply,
// and record the invocation in the audit log. It also runs the batch sweep
// across every known household.
//
// The engine is decoupled from its collaborators through narrow interfaces so
// tests can inject stubs: an ActivitySource for sensor data, a TextModel for
// the gateway, an AuditRecorder for the log, and an optional AnalysisCache.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/metrics"
	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
	"github.com/mcg-iot/seniorsafe-backend/internal/store"
)

// ─── COLLABORATOR INTERFACES ─────────────────────────────────────────────────

// ActivitySource supplies comparison windows and the household roster.
// *store.ActivitySource is the production implementation.
type ActivitySource interface {
	Window(ctx context.Context, householdID int, now time.Time) (risk.Window, error)
	ListHouseholdIDs(ctx context.Context) ([]int, error)
}

// AuditRecorder appends one entry per model invocation attempt.
// *store.Store is the production implementation.
type AuditRecorder interface {
	AppendAuditEntry(ctx context.Context, e store.AuditEntry) error
}

// ReportFiler files a detection as a report row. Only used when the
// auto-file policy flag is enabled. *store.Store is the production
// implementation.
type ReportFiler interface {
	FileAIReport(ctx context.Context, managerID, householdID int, agencyName, description string) (store.Report, error)
}

// AnalysisCache is the optional read-through cache of completed analyses.
// *cache.AnalysisCache is the production implementation; a nil cache simply
// recomputes every request.
type AnalysisCache interface {
	Get(ctx context.Context, householdID int, day time.Time) (ai.Analysis, bool)
	Set(ctx context.Context, householdID int, day time.Time, a ai.Analysis) error
}

// ─── ENGINE ──────────────────────────────────────────────────────────────────

// Config holds the engine's tuning and policy parameters. Zero values get
// safe defaults in New.
type Config struct {
	// Alignment selects how comparison hours are matched; see risk.Alignment.
	Alignment risk.Alignment

	// GatewayTimeout bounds each model call. Deadline exceeded is a gateway
	// failure. Default: 60s.
	GatewayTimeout time.Duration

	// BatchConcurrency is the worker count for the batch sweep. Default: 4.
	BatchConcurrency int

	// AutoFile, when true, files a report row for every at-risk household
	// found by the batch sweep. Deliberately off by default: detection is
	// counted and surfaced, filing waits for human confirmation.
	AutoFile bool

	// SystemManagerID is the manager recorded on auto-filed reports.
	SystemManagerID int
}

// Engine runs analyses. Construct with New.
type Engine struct {
	source ActivitySource
	model  ai.TextModel
	audit  AuditRecorder
	filer  ReportFiler   // may be nil when auto-file is off
	cache  AnalysisCache // may be nil
	cfg    Config
	logger *slog.Logger
}

// New constructs an Engine. filer and cache may be nil.
func New(source ActivitySource, model ai.TextModel, audit AuditRecorder, filer ReportFiler, cache AnalysisCache, cfg Config, logger *slog.Logger) *Engine {
	if cfg.Alignment == "" {
		cfg.Alignment = risk.AlignHourOfDay
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 60 * time.Second
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	return &Engine{
		source: source,
		model:  model,
		audit:  audit,
		filer:  filer,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// ─── SINGLE-HOUSEHOLD ANALYSIS ───────────────────────────────────────────────

// AnalyzeHousehold runs the full pipeline for one household. The returned
// error is non-nil only for infrastructure failures before the comparison
// (a sensor-store read error); everything downstream — insufficient data,
// gateway failure, undecodable reply — is absorbed into a deterministic
// Analysis so the caller always gets a usable record.
//
// A Normal tier never reaches the model and leaves no audit entry.
func (e *Engine) AnalyzeHousehold(ctx context.Context, householdID int) (ai.Analysis, error) {
	log := e.logger.With("household_id", householdID)
	now := time.Now()

	if e.cache != nil {
		if a, ok := e.cache.Get(ctx, householdID, now); ok {
			log.Debug("engine: analysis served from cache")
			return a, nil
		}
	}

	window, err := e.source.Window(ctx, householdID, now)
	if err != nil {
		return ai.Analysis{}, err
	}

	comparison := risk.Compare(window, e.cfg.Alignment)
	if comparison.InsufficientData {
		log.Warn("engine: insufficient data for comparison",
			"yesterday_samples", len(window.Yesterday),
			"today_samples", len(window.Today),
		)
		metrics.AnalysesTotal.WithLabelValues("insufficient_data").Inc()
		return ai.InsufficientDataAnalysis(householdID), nil
	}

	tier := risk.Classify(comparison.Ratio)
	log.Info("engine: ratio computed", "ratio", comparison.Ratio, "tier", tier)

	if tier == risk.TierNormal {
		metrics.AnalysesTotal.WithLabelValues(string(tier)).Inc()
		analysis := ai.SafeAnalysis(householdID, comparison.Ratio)
		e.cacheSet(ctx, householdID, now, analysis, log)
		return analysis, nil
	}

	prompt := ai.BuildAnalysisPrompt(householdID, comparison, tier)
	reply, elapsed, err := e.callGateway(ctx, prompt)
	if err != nil {
		log.Error("engine: gateway call failed", "error", err)
		e.recordAudit(ctx, store.AuditEntry{
			HouseholdID:  householdID,
			RequestType:  store.RequestTypeAnalysis,
			ElapsedMS:    elapsed.Milliseconds(),
			Success:      false,
			ErrorMessage: err.Error(),
		}, log)
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return ai.ErrorAnalysis(householdID), nil
	}

	analysis, decoded := ai.DecodeAnalysis(reply)
	if !decoded {
		log.Warn("engine: model reply fell back to fixed record", "reply_bytes", len(reply))
		metrics.ParseFallbacks.Inc()
	}

	// Audit success means the invocation produced a usable structured record:
	// the gateway call succeeded AND the reply decoded. A parse fallback is
	// recorded as success=false with the reason in error_message.
	entry := store.AuditEntry{
		HouseholdID: householdID,
		RequestType: store.RequestTypeAnalysis,
		Prompt:      prompt,
		RawResponse: reply,
		ElapsedMS:   elapsed.Milliseconds(),
		Success:     decoded,
	}
	if !decoded {
		entry.ErrorMessage = "parse fallback: reply did not contain a decodable JSON object"
	}
	e.recordAudit(ctx, entry, log)

	analysis.CommonActivityRatio = comparison.Ratio
	analysis.HouseholdID = householdID
	metrics.AnalysesTotal.WithLabelValues(string(tier)).Inc()

	if decoded {
		e.cacheSet(ctx, householdID, now, analysis, log)
	}
	return analysis, nil
}

// Summary returns the per-day aggregates plus ratio and tier for one
// household without touching the model.
func (e *Engine) Summary(ctx context.Context, householdID int) (risk.Comparison, risk.Tier, error) {
	window, err := e.source.Window(ctx, householdID, time.Now())
	if err != nil {
		return risk.Comparison{}, "", err
	}
	comparison := risk.Compare(window, e.cfg.Alignment)
	if comparison.InsufficientData {
		return comparison, "", nil
	}
	return comparison, risk.Classify(comparison.Ratio), nil
}

// ─── REPORTING DOCUMENT ──────────────────────────────────────────────────────

// GenerateReportingDocument runs the second model pass: a formal escalation
// document built from a prior analysis. Gateway and parse failures degrade to
// deterministic documents; both leave an audit entry.
func (e *Engine) GenerateReportingDocument(ctx context.Context, householdID int, prior ai.Analysis) (ai.ReportingDocument, error) {
	log := e.logger.With("household_id", householdID)

	prompt := ai.BuildReportingPrompt(householdID, time.Now(), prior)
	reply, elapsed, err := e.callGateway(ctx, prompt)
	if err != nil {
		log.Error("engine: reporting document gateway call failed", "error", err)
		e.recordAudit(ctx, store.AuditEntry{
			HouseholdID:  householdID,
			RequestType:  store.RequestTypeReportDoc,
			ElapsedMS:    elapsed.Milliseconds(),
			Success:      false,
			ErrorMessage: err.Error(),
		}, log)
		return ai.ErrorReportingDocument(), nil
	}

	doc, decoded := ai.DecodeReportingDocument(reply)
	if !decoded {
		log.Warn("engine: reporting document fell back to fixed record", "reply_bytes", len(reply))
		metrics.ParseFallbacks.Inc()
	}

	entry := store.AuditEntry{
		HouseholdID: householdID,
		RequestType: store.RequestTypeReportDoc,
		Prompt:      prompt,
		RawResponse: reply,
		ElapsedMS:   elapsed.Milliseconds(),
		Success:     decoded,
	}
	if !decoded {
		entry.ErrorMessage = "parse fallback: reply did not contain a decodable JSON object"
	}
	e.recordAudit(ctx, entry, log)

	return doc, nil
}

// ─── INTERNALS ───────────────────────────────────────────────────────────────

// callGateway makes the single bounded model call and observes its latency.
func (e *Engine) callGateway(ctx context.Context, prompt string) (string, time.Duration, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.GatewayTimeout)
	defer cancel()

	start := time.Now()
	reply, err := e.model.Generate(callCtx, prompt)
	elapsed := time.Since(start)

	metrics.GatewayLatency.Observe(elapsed.Seconds())
	if err != nil {
		metrics.GatewayFailures.Inc()
	}
	return reply, elapsed, err
}

// recordAudit appends the entry best-effort: a failed audit write is logged
// and discarded, never surfaced to the caller.
func (e *Engine) recordAudit(ctx context.Context, entry store.AuditEntry, log *slog.Logger) {
	if err := e.audit.AppendAuditEntry(ctx, entry); err != nil {
		log.Error("engine: audit write failed", "request_type", entry.RequestType, "error", err)
	}
}

// cacheSet stores best-effort.
func (e *Engine) cacheSet(ctx context.Context, householdID int, now time.Time, a ai.Analysis, log *slog.Logger) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, householdID, now, a); err != nil {
		log.Warn("engine: analysis cache write failed", "error", err)
	}
}
