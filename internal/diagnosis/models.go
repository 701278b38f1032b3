// Package diagnosis holds the survey domain model: the submitted form, the
// scoring-engine reply, the derived result view and the bounded persistence
// row.
package diagnosis

// FormData is the client-entered survey record. JSON keys match the wire
// format the scoring engine expects.
type FormData struct {
	CompanyName      string   `json:"company_name"`
	ContactName      string   `json:"contact_name"`
	BackofficePeople int      `json:"backoffice_people"`
	HourlyCost       string   `json:"hourly_cost"`
	ITTools          []string `json:"it_tools"`
	ITLiteracy       int      `json:"it_literacy"`
	TeamCooperation  int      `json:"team_cooperation"`
	BudgetLevel      string   `json:"budget_level"`
	Task1Name        string   `json:"task1_name"`
	Task1Freq        int      `json:"task1_freq"`
	Task1Time        int      `json:"task1_time"`
	TroubleText      string   `json:"trouble_text"`
}

// EngineResponse is the scoring engine's reply, decoded leniently.
// BottleneckTask and MonthlySavedCost keep their raw JSON values because the
// engine has been observed to return numbers as strings and error pages as
// bodies; the mapper and row shaper degrade malformed values to defaults
// instead of failing.
type EngineResponse struct {
	Status           string
	Message          string
	SlidesURL        string
	BottleneckTask   interface{}
	MonthlySavedCost interface{}
}

// EngineResponseFromMap extracts the typed view from a parsed JSON object.
func EngineResponseFromMap(m map[string]interface{}) EngineResponse {
	resp := EngineResponse{
		BottleneckTask:   m["bottleneckTask"],
		MonthlySavedCost: m["monthlySavedCost"],
	}
	if s, ok := m["status"].(string); ok {
		resp.Status = s
	}
	if s, ok := m["message"].(string); ok {
		resp.Message = s
	}
	if s, ok := m["slidesUrl"].(string); ok {
		resp.SlidesURL = s
	}
	return resp
}

// ROI holds the three derived savings figures. Conservative <= Base <=
// Aggressive always holds after mapping.
type ROI struct {
	Conservative int `json:"conservative"`
	Base         int `json:"base"`
	Aggressive   int `json:"aggressive"`
}

// Roadmap is the three-phase rollout narrative shown on the result screen.
type Roadmap struct {
	Phase1 string `json:"phase1"`
	Phase2 string `json:"phase2"`
	Phase3 string `json:"phase3"`
}

// ResultData is the display model derived from an EngineResponse. Computed
// once per successful reply, never mutated afterwards.
type ResultData struct {
	LeadRank         string  `json:"leadRank"`
	BottleneckTop    string  `json:"bottleneckTop"`
	TotalWeeklyHours float64 `json:"totalWeeklyHours"`
	MonthlyLaborCost int     `json:"monthlyLaborCost"`
	DifficultyScore  float64 `json:"difficultyScore"`
	ROI              ROI     `json:"roi"`
	Roadmap          Roadmap `json:"roadmap"`
}

// Row is the bounded projection of a form plus engine reply persisted to the
// diagnoses table. Every string column has an enforced maximum length and
// every numeric column is clamped; optional columns are null rather than
// holding invalid values. Insert-only.
type Row struct {
	CompanyName      string   `json:"company_name"`
	ContactName      string   `json:"contact_name"`
	BackofficePeople int      `json:"backoffice_people"`
	HourlyCost       string   `json:"hourly_cost"`
	ITTools          []string `json:"it_tools"`
	ITLiteracy       *float64 `json:"it_literacy"`
	TeamCooperation  *float64 `json:"team_cooperation"`
	BudgetLevel      string   `json:"budget_level"`
	Task1Name        string   `json:"task1_name"`
	Task1Freq        int      `json:"task1_freq"`
	Task1Time        int      `json:"task1_time"`
	TroubleText      string   `json:"trouble_text"`
	BottleneckTask   *string  `json:"bottleneck_task"`
	MonthlySavedCost *float64 `json:"monthly_saved_cost"`
	LeadRank         string   `json:"lead_rank"`
	Source           string   `json:"source"`
}
