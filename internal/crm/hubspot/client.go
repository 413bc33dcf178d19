// Package hubspot syncs accepted leads into HubSpot: contact upsert, deal
// creation, and tier-based follow-up tasks.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chimehq/roi-intake/internal/leadscore"
	"github.com/chimehq/roi-intake/pkg/logging"
)

const (
	defaultBaseURL   = "https://api.hubapi.com"
	defaultUserAgent = "roi-intake-crm/0.1"
)

// Config controls how the HubSpot client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// Client wraps the HubSpot CRM v3 endpoints the intake pipeline uses.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
	userAgent  string
	now        func() time.Time
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("hubspot: API key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		userAgent:  userAgent,
		now:        time.Now,
	}, nil
}

// UpsertContact creates the contact, or updates the existing one when HubSpot
// reports a conflict on the email address. Returns the contact ID.
func (c *Client) UpsertContact(ctx context.Context, contact ContactInput) (string, error) {
	if strings.TrimSpace(contact.Email) == "" {
		return "", errors.New("hubspot: contact email required")
	}
	props := contact.properties(c.now())
	body, err := json.Marshal(objectRequest{Properties: props})
	if err != nil {
		return "", fmt.Errorf("hubspot: marshal contact: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, "/crm/v3/objects/contacts", body)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return c.updateExistingContact(ctx, contact.Email, props)
		}
		return "", err
	}
	resp, err := decodeObject(data)
	if err != nil {
		return "", err
	}
	c.logger.Info("hubspot contact created", "contact_id", resp.ID)
	return resp.ID, nil
}

// updateExistingContact finds the contact by email and patches its properties.
func (c *Client) updateExistingContact(ctx context.Context, email string, props map[string]string) (string, error) {
	searchBody, err := json.Marshal(searchRequest{
		FilterGroups: []filterGroup{{
			Filters: []filter{{PropertyName: "email", Operator: "EQ", Value: email}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("hubspot: marshal contact search: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", searchBody)
	if err != nil {
		return "", err
	}
	var search searchResponse
	if err := json.Unmarshal(data, &search); err != nil {
		return "", fmt.Errorf("hubspot: decode contact search: %w", err)
	}
	if len(search.Results) == 0 {
		return "", fmt.Errorf("hubspot: contact %s not found for update", email)
	}
	contactID := search.Results[0].ID

	updateBody, err := json.Marshal(objectRequest{Properties: props})
	if err != nil {
		return "", fmt.Errorf("hubspot: marshal contact update: %w", err)
	}
	if _, err := c.invoke(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+contactID, updateBody); err != nil {
		return "", err
	}
	c.logger.Info("hubspot contact updated", "contact_id", contactID)
	return contactID, nil
}

// CreateDeal creates a deal valued at the lead's expected annual benefit and
// associates it with the contact. Returns the deal ID.
func (c *Client) CreateDeal(ctx context.Context, deal DealInput) (string, error) {
	if strings.TrimSpace(deal.ContactID) == "" {
		return "", errors.New("hubspot: contact id required")
	}
	closeDate := c.now().Add(30 * 24 * time.Hour)
	body, err := json.Marshal(associatedObjectRequest{
		Properties: map[string]string{
			"dealname":                fmt.Sprintf("ROI Calculator Lead - %s %s", deal.FirstName, deal.LastName),
			"amount":                  formatFloat(deal.ExpectedAnnualBenefit),
			"dealstage":               "appointmentscheduled",
			"pipeline":                "default",
			"closedate":               closeDate.Format(time.RFC3339),
			"lead_source":             "ROI Calculator",
			"lead_score":              strconv.Itoa(deal.LeadScore),
			"monthly_revenue":         formatFloat(deal.MonthlyRevenue),
			"expected_annual_benefit": formatFloat(deal.ExpectedAnnualBenefit),
		},
		Associations: []association{contactAssociation(deal.ContactID, dealToContactAssociation)},
	})
	if err != nil {
		return "", fmt.Errorf("hubspot: marshal deal: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, "/crm/v3/objects/deals", body)
	if err != nil {
		return "", err
	}
	resp, err := decodeObject(data)
	if err != nil {
		return "", err
	}
	c.logger.Info("hubspot deal created", "deal_id", resp.ID, "amount", deal.ExpectedAnnualBenefit)
	return resp.ID, nil
}

// CreateFollowUpTask schedules a call task due at the end of the tier's
// follow-up window. Returns the task ID.
func (c *Client) CreateFollowUpTask(ctx context.Context, contactID string, tier leadscore.Tier) (string, error) {
	if strings.TrimSpace(contactID) == "" {
		return "", errors.New("hubspot: contact id required")
	}
	plan := leadscore.FollowUpPlan(tier)
	dueDate := c.now().Add(plan.Window)

	body, err := json.Marshal(associatedObjectRequest{
		Properties: map[string]string{
			"hs_task_subject":  fmt.Sprintf("Follow up with %s ROI Calculator lead", tier),
			"hs_task_body":     fmt.Sprintf("Contact this %s priority lead from ROI Calculator submission. Lead score indicates high potential.", tier),
			"hs_task_status":   "NOT_STARTED",
			"hs_task_priority": taskPriority(tier),
			"hs_timestamp":     dueDate.Format(time.RFC3339),
			"hs_task_type":     "CALL",
		},
		Associations: []association{contactAssociation(contactID, taskToContactAssociation)},
	})
	if err != nil {
		return "", fmt.Errorf("hubspot: marshal task: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, "/crm/v3/objects/tasks", body)
	if err != nil {
		return "", err
	}
	resp, err := decodeObject(data)
	if err != nil {
		return "", err
	}
	c.logger.Info("hubspot follow-up task created", "task_id", resp.ID, "tier", tier)
	return resp.ID, nil
}

func taskPriority(tier leadscore.Tier) string {
	switch tier {
	case leadscore.TierHot:
		return "HIGH"
	case leadscore.TierWarm:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (c *Client) invoke(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("hubspot: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !shouldRetry(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("hubspot: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("hubspot: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := decodeAPIError(resp.StatusCode, data)
		if attempt < c.maxRetries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("hubspot: request failed without response")
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(path string, attempt int, status int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("hubspot retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 500 && status <= 599 {
		return true
	}
	return false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
