package submissions

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationResult carries field-keyed validation errors. Valid is true
// exactly when Errors is empty.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

var (
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	websitePattern = regexp.MustCompile(`^https?://[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}(/.*)?$`)
	nonDigit       = regexp.MustCompile(`\D`)
)

var requiredFields = []string{
	"first_name", "last_name", "email",
	"monthly_revenue", "average_order_value", "monthly_orders",
}

type numericRange struct {
	min, max float64
}

var financialRanges = map[string]numericRange{
	"monthly_revenue":     {1000, 10000000},
	"average_order_value": {1, 100000},
	"monthly_orders":      {1, 1000000},
}

var percentageFields = []string{"conversion_rate", "cart_abandonment_rate"}

var validIndustries = []string{
	"E-commerce", "SaaS", "Healthcare", "Finance", "Education",
	"Real Estate", "Manufacturing", "Retail", "Technology",
	"Consulting", "Marketing", "Other",
}

var validStages = []string{"Startup", "Growth", "Established", "Enterprise"}

var validSizes = []string{"1-10", "11-50", "51-200", "201-1000", "1000+"}

// Validate applies every form rule independently and collects all errors; it
// never short-circuits on the first failure.
func Validate(form Form) ValidationResult {
	errs := map[string]string{}

	for _, field := range requiredFields {
		v, present := form[field]
		if !present || v == nil || isFalsy(v) {
			errs[field] = fieldLabel(field) + " is required"
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			errs[field] = fieldLabel(field) + " cannot be empty"
		}
	}

	if email := form.String("email"); email != "" && !emailPattern.MatchString(email) {
		errs["email"] = "Please enter a valid email address"
	}

	for _, field := range []string{"first_name", "last_name"} {
		name := form.String(field)
		if name == "" {
			continue
		}
		switch {
		case len(name) < 2:
			errs[field] = fieldLabel(field) + " must be at least 2 characters"
		case len(name) > 50:
			errs[field] = fieldLabel(field) + " must be less than 50 characters"
		case !namePattern.MatchString(name):
			errs[field] = fieldLabel(field) + " contains invalid characters"
		}
	}

	// Falsy values (absent, nil, zero) are "not provided": the required-field
	// loop already reported them, and optional zeros carry no range to check.
	for field, bounds := range financialRanges {
		if v, present := form[field]; !present || v == nil || isFalsy(v) {
			continue
		}
		value, ok := form.Number(field)
		if !ok {
			errs[field] = fieldLabel(field) + " must be a valid number"
			continue
		}
		switch {
		case value < bounds.min:
			errs[field] = fmt.Sprintf("%s must be at least $%s", fieldLabel(field), formatAmount(bounds.min))
		case value > bounds.max:
			errs[field] = fmt.Sprintf("%s cannot exceed $%s", fieldLabel(field), formatAmount(bounds.max))
		}
	}

	if phone := form.String("phone"); phone != "" {
		digits := nonDigit.ReplaceAllString(phone, "")
		if len(digits) < 10 || len(digits) > 15 {
			errs["phone"] = "Please enter a valid phone number"
		}
	}

	if website := form.String("website"); website != "" && !websitePattern.MatchString(website) {
		errs["website"] = "Please enter a valid website URL (include http:// or https://)"
	}

	if company := form.String("company"); len(company) > 100 {
		errs["company"] = "Company name must be less than 100 characters"
	}

	if industry := form.String("industry"); industry != "" && !contains(validIndustries, industry) {
		errs["industry"] = "Please select a valid industry"
	}
	if stage := form.String("business_stage"); stage != "" && !contains(validStages, stage) {
		errs["business_stage"] = "Please select a valid business stage"
	}
	if size := form.String("company_size"); size != "" && !contains(validSizes, size) {
		errs["company_size"] = "Please select a valid company size"
	}

	for _, field := range percentageFields {
		if v, present := form[field]; !present || v == nil || isFalsy(v) {
			continue
		}
		value, ok := form.Number(field)
		if !ok {
			errs[field] = fieldLabel(field) + " must be a valid percentage"
			continue
		}
		if value < 0 || value > 100 {
			errs[field] = fieldLabel(field) + " must be between 0 and 100"
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateCalculation is the narrower gate for real-time projection requests:
// only monthly revenue matters. The 10M ceiling is a sanity check, not a form
// constraint.
func ValidateCalculation(form Form) ValidationResult {
	errs := map[string]string{}

	if !form.Has("monthly_revenue") {
		errs["monthly_revenue"] = "Monthly revenue is required for calculations"
	} else if value, ok := form.Number("monthly_revenue"); !ok {
		errs["monthly_revenue"] = "Monthly revenue must be a valid number"
	} else if value <= 0 {
		errs["monthly_revenue"] = "Monthly revenue must be greater than 0"
	} else if value > 10000000 {
		errs["monthly_revenue"] = "Monthly revenue seems unusually high"
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// isFalsy mirrors form semantics: zero numbers are "not provided".
func isFalsy(v any) bool {
	switch n := v.(type) {
	case float64:
		return n == 0
	case int:
		return n == 0
	case bool:
		return !n
	case string:
		return n == ""
	}
	return false
}

// fieldLabel turns a snake_case field name into a human label, e.g.
// "monthly_revenue" -> "Monthly Revenue".
func fieldLabel(field string) string {
	parts := strings.Split(field, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// formatAmount renders a whole dollar amount with thousands separators.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
