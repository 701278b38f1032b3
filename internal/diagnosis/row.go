package diagnosis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Per-column maximum lengths, in characters. Truncation is a straight prefix
// cut, no ellipsis.
const (
	maxCompanyName    = 500
	maxContactName    = 200
	maxHourlyCost     = 50
	maxBudgetLevel    = 50
	maxTask1Name      = 300
	maxTroubleText    = 2000
	maxBottleneckTask = 300
	maxToolsCount     = 50
	maxToolLength     = 100
	maxSourceLength   = 50

	maxBackofficePeople = 100000
	maxTask1Freq        = 10000
	maxTask1Time        = 10000
)

// NewRow shapes a raw form payload plus engine reply into a bounded
// persistence row. It operates on the undecoded payload map because the
// handler forwards client JSON verbatim; every malformed field degrades to a
// safe default rather than rejecting the whole record. The id and created_at
// columns are assigned by the store at insert time.
func NewRow(form map[string]interface{}, api EngineResponse, source string) Row {
	row := Row{
		CompanyName:      truncate(stringify(form["company_name"]), maxCompanyName),
		ContactName:      truncate(stringify(form["contact_name"]), maxContactName),
		BackofficePeople: clampInt(form["backoffice_people"], 0, maxBackofficePeople),
		HourlyCost:       truncate(stringify(form["hourly_cost"]), maxHourlyCost),
		ITTools:          shapeTools(form["it_tools"]),
		ITLiteracy:       ratingOrNil(form["it_literacy"]),
		TeamCooperation:  ratingOrNil(form["team_cooperation"]),
		BudgetLevel:      truncate(stringify(form["budget_level"]), maxBudgetLevel),
		Task1Name:        truncate(stringify(form["task1_name"]), maxTask1Name),
		Task1Freq:        clampInt(form["task1_freq"], 0, maxTask1Freq),
		Task1Time:        clampInt(form["task1_time"], 0, maxTask1Time),
		TroubleText:      truncate(stringify(form["trouble_text"]), maxTroubleText),
		LeadRank:         fixedLeadRank,
		Source:           truncate(source, maxSourceLength),
	}

	if row.Source == "" {
		row.Source = "web"
	}

	if s, ok := api.BottleneckTask.(string); ok && strings.TrimSpace(s) != "" {
		task := truncate(s, maxBottleneckTask)
		row.BottleneckTask = &task
	}
	if n, ok := api.MonthlySavedCost.(float64); ok && !math.IsNaN(n) && !math.IsInf(n, 0) && n >= 0 {
		cost := n
		row.MonthlySavedCost = &cost
	}

	return row
}

// truncate cuts s to at most max characters. Counted in runes, not bytes:
// the form text is Japanese.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// clampInt coerces v to a number, rounds to the nearest integer and clamps
// into [min, max]. Non-numeric input clamps to min.
func clampInt(v interface{}, min, max int) int {
	n, ok := toNumber(v)
	if !ok {
		return min
	}
	r := int(math.Round(n))
	if r < min {
		return min
	}
	if r > max {
		return max
	}
	return r
}

// ratingOrNil passes a rating through only when it is an actual JSON number
// in [1,5]. Anything else, numeric strings included, is stored as null,
// explicitly distinct from 0.
func ratingOrNil(v interface{}) *float64 {
	var n float64
	switch r := v.(type) {
	case float64:
		n = r
	case int:
		n = float64(r)
	default:
		return nil
	}
	if math.IsNaN(n) || n < 1 || n > 5 {
		return nil
	}
	return &n
}

func shapeTools(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	if len(items) > maxToolsCount {
		items = items[:maxToolsCount]
	}
	tools := make([]string, 0, len(items))
	for _, item := range items {
		tools = append(tools, truncate(stringify(item), maxToolLength))
	}
	return tools
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
