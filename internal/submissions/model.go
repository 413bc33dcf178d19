// Package submissions implements the ROI calculator intake pipeline: form
// sanitization, validation, and persistence of scored submissions.
package submissions

import (
	"strconv"
	"strings"
	"time"

	"github.com/chimehq/roi-intake/internal/leadscore"
)

// Submission is a persisted ROI calculator form submission.
type Submission struct {
	ID string `json:"id"`

	// Contact information
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Website   string `json:"website,omitempty"`

	// Business information
	Industry      string `json:"industry,omitempty"`
	CompanySize   string `json:"company_size,omitempty"`
	BusinessStage string `json:"business_stage,omitempty"`

	// Financial data
	MonthlyRevenue    float64 `json:"monthly_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	MonthlyOrders     int     `json:"monthly_orders"`
	ConversionRate    float64 `json:"conversion_rate,omitempty"`
	CartAbandonment   float64 `json:"cart_abandonment_rate,omitempty"`
	ManualHours       int     `json:"manual_hours_per_week,omitempty"`
	MonthlyAdSpend    float64 `json:"monthly_ad_spend,omitempty"`

	// ROI projections captured at submission time
	ConservativeRevenue float64 `json:"conservative_revenue"`
	ExpectedRevenue     float64 `json:"expected_revenue"`
	OptimisticRevenue   float64 `json:"optimistic_revenue"`

	// Lead scoring
	LeadScore int            `json:"lead_score"`
	LeadTier  leadscore.Tier `json:"lead_tier"`

	// Integration IDs
	HubSpotContactID string `json:"hubspot_contact_id,omitempty"`
	HubSpotDealID    string `json:"hubspot_deal_id,omitempty"`

	// Request tracking
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
	Referrer    string `json:"-"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`

	// Downstream status
	EmailSent bool `json:"email_sent"`
	CRMSynced bool `json:"crm_synced"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Form is a sanitized, field-named submission payload as decoded from JSON.
type Form map[string]any

// String returns the trimmed string value of a field, or "" when absent or
// not a string.
func (f Form) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Number parses a field as a number. JSON numbers arrive as float64; numeric
// strings are accepted because HTML forms submit everything as text.
func (f Form) Number(key string) (float64, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Has reports whether the field carries a usable value. Empty strings and nil
// count as absent.
func (f Form) Has(key string) bool {
	v, ok := f[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Metrics converts the form into scoring input. Must only be called on a
// validated form; unparsable optional fields degrade to zero.
func (f Form) Metrics() leadscore.Metrics {
	revenue, _ := f.Number("monthly_revenue")
	orders, _ := f.Number("monthly_orders")
	aov, _ := f.Number("average_order_value")
	conversion, _ := f.Number("conversion_rate")
	abandonment, _ := f.Number("cart_abandonment_rate")
	manualHours, _ := f.Number("manual_hours_per_week")
	adSpend, _ := f.Number("monthly_ad_spend")

	return leadscore.Metrics{
		CompanySize:        f.String("company_size"),
		Industry:           f.String("industry"),
		BusinessStage:      f.String("business_stage"),
		Website:            f.String("website"),
		MonthlyRevenue:     revenue,
		MonthlyOrders:      int(orders),
		AverageOrderValue:  aov,
		ConversionRate:     conversion,
		CartAbandonment:    abandonment,
		ManualHoursPerWeek: int(manualHours),
		MonthlyAdSpend:     adSpend,
	}
}
