package diagnosis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() map[string]interface{} {
	return map[string]interface{}{
		"company_name":      "株式会社テスト",
		"contact_name":      "山田太郎",
		"backoffice_people": float64(3),
		"hourly_cost":       "1500",
		"it_tools":          []interface{}{"Excel / Googleスプレッドシート", "Slack / Teams"},
		"it_literacy":       float64(3),
		"team_cooperation":  float64(4),
		"budget_level":      "medium",
		"task1_name":        "月次請求書作成",
		"task1_freq":        float64(4),
		"task1_time":        float64(90),
		"trouble_text":      "手作業が多く転記ミスが頻発している",
	}
}

func successResponse() EngineResponse {
	return EngineResponse{
		Status:           "success",
		BottleneckTask:   "月次請求書作成",
		MonthlySavedCost: float64(48000),
	}
}

func TestNewRow_WellFormedInput(t *testing.T) {
	row := NewRow(validForm(), successResponse(), "web")

	assert.Equal(t, "株式会社テスト", row.CompanyName)
	assert.Equal(t, "山田太郎", row.ContactName)
	assert.Equal(t, 3, row.BackofficePeople)
	assert.Equal(t, []string{"Excel / Googleスプレッドシート", "Slack / Teams"}, row.ITTools)
	require.NotNil(t, row.ITLiteracy)
	assert.Equal(t, 3.0, *row.ITLiteracy)
	require.NotNil(t, row.TeamCooperation)
	assert.Equal(t, 4.0, *row.TeamCooperation)
	require.NotNil(t, row.BottleneckTask)
	assert.Equal(t, "月次請求書作成", *row.BottleneckTask)
	require.NotNil(t, row.MonthlySavedCost)
	assert.Equal(t, 48000.0, *row.MonthlySavedCost)
	assert.Equal(t, "A", row.LeadRank)
	assert.Equal(t, "web", row.Source)
}

func TestNewRow_TruncatesLongStrings(t *testing.T) {
	form := validForm()
	form["company_name"] = strings.Repeat("あ", 600)
	form["trouble_text"] = strings.Repeat("x", 2500)

	row := NewRow(form, successResponse(), "web")

	assert.Equal(t, strings.Repeat("あ", 500), row.CompanyName)
	assert.Equal(t, strings.Repeat("x", 2000), row.TroubleText)
}

func TestNewRow_ClampsNumericFields(t *testing.T) {
	tests := []struct {
		name   string
		people interface{}
		want   int
	}{
		{"negative clamps to zero", float64(-5), 0},
		{"oversized clamps to max", float64(99999999), 100000},
		{"non-numeric clamps to zero", "abc", 0},
		{"missing clamps to zero", nil, 0},
		{"fractional rounds", float64(2.6), 3},
		{"numeric string accepted", "12", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form["backoffice_people"] = tt.people
			row := NewRow(form, successResponse(), "web")
			assert.Equal(t, tt.want, row.BackofficePeople)
		})
	}
}

func TestNewRow_FreqAndTimeBounds(t *testing.T) {
	form := validForm()
	form["task1_freq"] = float64(50000)
	form["task1_time"] = float64(-1)

	row := NewRow(form, successResponse(), "web")

	assert.Equal(t, 10000, row.Task1Freq)
	assert.Equal(t, 0, row.Task1Time)
}

func TestNewRow_RatingsOutsideRangeBecomeNil(t *testing.T) {
	tests := []struct {
		name   string
		rating interface{}
	}{
		{"zero means unset", float64(0)},
		{"above range", float64(6)},
		{"negative", float64(-1)},
		{"string rejected", "3"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form["it_literacy"] = tt.rating
			row := NewRow(form, successResponse(), "web")
			assert.Nil(t, row.ITLiteracy)
		})
	}
}

func TestNewRow_ToolListShaping(t *testing.T) {
	tools := make([]interface{}, 60)
	for i := range tools {
		tools[i] = strings.Repeat("t", 150)
	}
	form := validForm()
	form["it_tools"] = tools

	row := NewRow(form, successResponse(), "web")

	require.Len(t, row.ITTools, 50)
	for _, tool := range row.ITTools {
		assert.Len(t, tool, 100)
	}
}

func TestNewRow_NonArrayToolsBecomeEmpty(t *testing.T) {
	form := validForm()
	form["it_tools"] = "Excel"

	row := NewRow(form, successResponse(), "web")

	assert.Empty(t, row.ITTools)
}

func TestNewRow_OptionalResponseFields(t *testing.T) {
	row := NewRow(validForm(), EngineResponse{Status: "success"}, "web")
	assert.Nil(t, row.BottleneckTask)
	assert.Nil(t, row.MonthlySavedCost)

	row = NewRow(validForm(), EngineResponse{BottleneckTask: "  ", MonthlySavedCost: float64(-100)}, "web")
	assert.Nil(t, row.BottleneckTask)
	assert.Nil(t, row.MonthlySavedCost)

	// A numeric string is not accepted for persistence, unlike the result
	// mapper: the column is numeric and the raw value untrustworthy.
	row = NewRow(validForm(), EngineResponse{MonthlySavedCost: "48000"}, "web")
	assert.Nil(t, row.MonthlySavedCost)
}

func TestNewRow_SourceHandling(t *testing.T) {
	assert.Equal(t, "web", NewRow(validForm(), successResponse(), "").Source)
	assert.Equal(t, "mock", NewRow(validForm(), successResponse(), "mock").Source)
	assert.Equal(t, strings.Repeat("s", 50), NewRow(validForm(), successResponse(), strings.Repeat("s", 80)).Source)
}

func TestNewRow_BottleneckTruncated(t *testing.T) {
	resp := successResponse()
	resp.BottleneckTask = strings.Repeat("b", 400)

	row := NewRow(validForm(), resp, "web")

	require.NotNil(t, row.BottleneckTask)
	assert.Equal(t, strings.Repeat("b", 300), *row.BottleneckTask)
}
