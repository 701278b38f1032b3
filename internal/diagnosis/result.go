package diagnosis

import (
	"math"
	"strconv"
	"strings"

	"diagnosis-api/internal/common/logger"
)

// DefaultBaseSavedCost is used when the engine returns no usable
// monthlySavedCost figure.
const DefaultBaseSavedCost = 48000

// PlaceholderBottleneck labels the result when the engine names no task.
const PlaceholderBottleneck = "分析対象の業務"

// The current scoring model is a stub: rank, hours, labor cost, difficulty
// and the roadmap text are fixed until the engine-side formula lands. Keep
// the values unchanged for compatibility with the existing result screen.
const (
	fixedLeadRank         = "A"
	fixedTotalWeeklyHours = 18.5
	fixedMonthlyLaborCost = 120000
	fixedDifficultyScore  = 2.8
)

var fixedRoadmap = Roadmap{
	Phase1: "現状整理（0〜2週）：最優先業務の手順を可視化",
	Phase2: "小さく導入（2〜6週）：試験的にツール導入",
	Phase3: "横展開（1〜3か月）：効果検証後、関連業務へ展開",
}

// ResultFromResponse maps an engine reply to the result display model. It
// never fails: every malformed input degrades to a default value.
func ResultFromResponse(resp EngineResponse, log logger.Logger) ResultData {
	base := safeNumber(resp.MonthlySavedCost, DefaultBaseSavedCost)
	conservative := int(math.Round(float64(base) * 0.5))
	aggressive := int(math.Round(float64(base) * 1.5))
	roi := ensureROIOrder(ROI{Conservative: conservative, Base: base, Aggressive: aggressive}, log)

	bottleneck := PlaceholderBottleneck
	if s, ok := resp.BottleneckTask.(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			bottleneck = trimmed
		}
	}

	return ResultData{
		LeadRank:         fixedLeadRank,
		BottleneckTop:    bottleneck,
		TotalWeeklyHours: fixedTotalWeeklyHours,
		MonthlyLaborCost: fixedMonthlyLaborCost,
		DifficultyScore:  fixedDifficultyScore,
		ROI:              roi,
		Roadmap:          fixedRoadmap,
	}
}

// ensureROIOrder guarantees conservative <= base <= aggressive. The formulas
// above cannot violate it for base >= 0, but a future data source feeding
// precomputed figures could; in that case the two derived values are
// recomputed from base and the violation is logged.
func ensureROIOrder(roi ROI, log logger.Logger) ROI {
	if roi.Conservative <= roi.Base && roi.Base <= roi.Aggressive {
		return roi
	}

	log.Warn("roi order violated, falling back to derived values", map[string]interface{}{
		"conservative": roi.Conservative,
		"base":         roi.Base,
		"aggressive":   roi.Aggressive,
	})
	return ROI{
		Conservative: int(math.Round(float64(roi.Base) * 0.5)),
		Base:         roi.Base,
		Aggressive:   int(math.Round(float64(roi.Base) * 1.5)),
	}
}

// safeNumber coerces a raw JSON value to a non-negative rounded integer.
// Numeric strings are accepted; anything else yields the fallback.
func safeNumber(value interface{}, fallback int) int {
	switch v := value.(type) {
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 {
			return int(math.Round(v))
		}
	case int:
		if v >= 0 {
			return v
		}
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(n, 0) && n >= 0 {
			return int(math.Round(n))
		}
	}
	return fallback
}
