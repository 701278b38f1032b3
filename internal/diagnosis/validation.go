package diagnosis

import "strings"

// ValidationErrors maps a form field name to its user-facing message.
type ValidationErrors map[string]string

// ValidateForm checks the required fields and numeric ranges before a form
// is submitted. Validation runs on the submitting side only; the proxy
// handlers forward whatever they receive and leave rejection to the engine.
func ValidateForm(form FormData) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(form.CompanyName) == "" {
		errs["company_name"] = "会社名を入力してください"
	}
	if strings.TrimSpace(form.ContactName) == "" {
		errs["contact_name"] = "担当者名を入力してください"
	}
	if form.HourlyCost == "" {
		errs["hourly_cost"] = "想定人件費を選択してください"
	}
	if form.BudgetLevel == "" {
		errs["budget_level"] = "導入予算感を選択してください"
	}
	if strings.TrimSpace(form.Task1Name) == "" {
		errs["task1_name"] = "業務名を入力してください"
	}
	if form.Task1Freq < 1 {
		errs["task1_freq"] = "1週間あたりの実施回数を入力してください（1以上）"
	}
	if form.Task1Time < 1 {
		errs["task1_time"] = "1回あたりの作業時間（分）を入力してください（1以上）"
	}
	if form.BackofficePeople < 1 {
		errs["backoffice_people"] = "担当人数は1以上で入力してください"
	}

	return errs
}

// Valid reports whether the form passed every check.
func (v ValidationErrors) Valid() bool {
	return len(v) == 0
}
