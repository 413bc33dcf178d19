package hubspot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// HubSpot-defined association type IDs.
const (
	dealToContactAssociation = 3
	taskToContactAssociation = 204
)

// ContactInput holds the lead fields pushed onto the HubSpot contact record.
type ContactInput struct {
	Email         string
	FirstName     string
	LastName      string
	Company       string
	Phone         string
	Website       string
	Industry      string
	CompanySize   string
	BusinessStage string

	MonthlyRevenue    float64
	AverageOrderValue float64
	MonthlyOrders     int

	LeadScore int
	LeadTier  string
}

func (c ContactInput) properties(submittedAt time.Time) map[string]string {
	return map[string]string{
		"email":                     c.Email,
		"firstname":                 c.FirstName,
		"lastname":                  c.LastName,
		"company":                   c.Company,
		"phone":                     c.Phone,
		"website":                   c.Website,
		"industry":                  c.Industry,
		"company_size":              c.CompanySize,
		"business_stage":            c.BusinessStage,
		"monthly_revenue":           formatFloat(c.MonthlyRevenue),
		"average_order_value":       formatFloat(c.AverageOrderValue),
		"monthly_orders":            strconv.Itoa(c.MonthlyOrders),
		"lead_score":                strconv.Itoa(c.LeadScore),
		"lead_tier":                 c.LeadTier,
		"roi_calculator_submission": "true",
		"submission_date":           submittedAt.Format(time.RFC3339),
		"lifecyclestage":            "lead",
	}
}

// DealInput holds the fields for the deal created per accepted submission.
type DealInput struct {
	ContactID             string
	FirstName             string
	LastName              string
	MonthlyRevenue        float64
	ExpectedAnnualBenefit float64
	LeadScore             int
}

type objectRequest struct {
	Properties map[string]string `json:"properties"`
}

type associatedObjectRequest struct {
	Properties   map[string]string `json:"properties"`
	Associations []association     `json:"associations,omitempty"`
}

type association struct {
	To    associationTarget `json:"to"`
	Types []associationType `json:"types"`
}

type associationTarget struct {
	ID string `json:"id"`
}

type associationType struct {
	AssociationCategory string `json:"associationCategory"`
	AssociationTypeID   int    `json:"associationTypeId"`
}

func contactAssociation(contactID string, typeID int) association {
	return association{
		To: associationTarget{ID: contactID},
		Types: []associationType{{
			AssociationCategory: "HUBSPOT_DEFINED",
			AssociationTypeID:   typeID,
		}},
	}
}

type objectResponse struct {
	ID string `json:"id"`
}

func decodeObject(data []byte) (objectResponse, error) {
	var resp objectResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return objectResponse{}, fmt.Errorf("hubspot: decode response: %w", err)
	}
	if resp.ID == "" {
		return objectResponse{}, fmt.Errorf("hubspot: response missing object id")
	}
	return resp, nil
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Results []objectResponse `json:"results"`
}

type apiError struct {
	StatusCode int    `json:"-"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("hubspot: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("hubspot: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &apiError{StatusCode: status, Message: string(body)}
	}
	parsed.StatusCode = status
	return &parsed
}
