package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/exportai/backend/internal/llm"
	"github.com/exportai/backend/internal/metrics"
	"github.com/exportai/backend/internal/storage/sqlite"
	"github.com/exportai/backend/pkg/errs"
	"github.com/exportai/backend/pkg/logger"
)

// Completer is the narrow slice of the LLM client the generators use.
// Tests substitute a stub returning canned, schema-valid documents.
type Completer interface {
	CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error)
}

// Invalidator is notified after an analysis persists new rows so stale
// cached reads for that company can be dropped. A nil Invalidator is a
// no-op.
type Invalidator interface {
	InvalidateCompany(ctx context.Context, companyID int64)
}

// Service orchestrates the analysis generators: assemble input rows,
// render a prompt, call the completion service under a strict schema,
// validate, persist, echo.
type Service struct {
	store     *sqlite.Client
	completer Completer
	cache     Invalidator
}

func NewService(store *sqlite.Client, completer Completer, cache Invalidator) *Service {
	return &Service{
		store:     store,
		completer: completer,
		cache:     cache,
	}
}

// Bounds on how much history feeds a prompt. The fetch window is wider
// than the rendered excerpt so ordering stays stable.
const (
	tradeDataFetchLimit = 50
	trendFetchLimit     = 500
	promptExcerptLimit  = 20
)

// clampScore forces a model-produced score into the declared [0,1] range.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func strOrDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// decodeStrict parses a completion document and fails with AnalysisError
// on malformed JSON or unknown shape.
func decodeStrict(raw json.RawMessage, out interface{}) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	if err := dec.Decode(out); err != nil {
		return errs.Analysis("validate", fmt.Errorf("completion did not match schema: %w", err))
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64) {
	if s.cache != nil {
		s.cache.InvalidateCompany(ctx, companyID)
	}
}

func observe(generator string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.AnalysesTotal.WithLabelValues(generator, status).Inc()
	metrics.AnalysisDuration.WithLabelValues(generator).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error("Analysis failed", zap.String("generator", generator), zap.Error(err))
	}
}
