package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/metrics"
	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

// BatchSummary is the result of one full sweep across the household roster.
type BatchSummary struct {
	TotalHouseholds  int `json:"total_households"`
	AtRiskHouseholds int `json:"at_risk_households"`
}

// EvaluateAll sweeps every known household, computes the common-activity
// ratio and tier for each, and counts the at-risk ones. The sweep is
// deliberately model-free: it exists to find who needs attention, not to
// narrate why, so a thousand households cost zero gateway calls.
//
// Households whose data cannot be read, or whose window is insufficient, are
// logged and skipped; they count toward the total but never toward at-risk.
// When the auto-file flag is on, each at-risk household also gets a report
// row filed under the system manager.
func (e *Engine) EvaluateAll(ctx context.Context) (BatchSummary, error) {
	ids, err := e.source.ListHouseholdIDs(ctx)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("engine: list households: %w", err)
	}

	e.logger.Info("engine: batch sweep starting",
		"households", len(ids),
		"workers", e.cfg.BatchConcurrency,
		"auto_file", e.cfg.AutoFile,
	)
	start := time.Now()

	var atRisk atomic.Int64
	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < e.cfg.BatchConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if e.evaluateOne(ctx, id) {
					atRisk.Add(1)
				}
			}
		}()
	}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return BatchSummary{}, ctx.Err()
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()

	summary := BatchSummary{
		TotalHouseholds:  len(ids),
		AtRiskHouseholds: int(atRisk.Load()),
	}

	metrics.BatchSweeps.Inc()
	metrics.AtRiskHouseholds.Set(float64(summary.AtRiskHouseholds))

	e.logger.Info("engine: batch sweep finished",
		"households", summary.TotalHouseholds,
		"at_risk", summary.AtRiskHouseholds,
		"elapsed", time.Since(start),
	)
	return summary, nil
}

// evaluateOne computes ratio and tier for a single household and reports
// whether it is at risk. All failures are absorbed: a batch sweep must never
// abort because one household's data is broken.
func (e *Engine) evaluateOne(ctx context.Context, householdID int) bool {
	log := e.logger.With("household_id", householdID)

	window, err := e.source.Window(ctx, householdID, time.Now())
	if err != nil {
		log.Error("engine: batch window read failed", "error", err)
		return false
	}

	comparison := risk.Compare(window, e.cfg.Alignment)
	if comparison.InsufficientData {
		log.Debug("engine: batch skipped, insufficient data")
		return false
	}

	tier := risk.Classify(comparison.Ratio)
	if !tier.AtRisk() {
		return false
	}

	log.Warn("engine: batch flagged household", "tier", tier, "ratio", comparison.Ratio)

	if e.cfg.AutoFile && e.filer != nil {
		agency := ai.AgencyWelfare
		if tier == risk.TierCritical {
			agency = ai.AgencyFire
		}
		description := fmt.Sprintf("automatic detection: %s risk, common activity ratio %.1f%%", tier, comparison.Ratio)
		if _, err := e.filer.FileAIReport(ctx, e.cfg.SystemManagerID, householdID, agency, description); err != nil {
			log.Error("engine: auto-file failed", "error", err)
		}
	}
	return true
}
