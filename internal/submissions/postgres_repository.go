package submissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chimehq/roi-intake/internal/leadscore"
)

// DB is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores submissions in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("submissions: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const submissionColumns = `
	id, email, first_name, last_name, company, phone, website,
	industry, company_size, business_stage,
	monthly_revenue, average_order_value, monthly_orders,
	conversion_rate, cart_abandonment_rate, manual_hours_per_week, monthly_ad_spend,
	conservative_revenue, expected_revenue, optimistic_revenue,
	lead_score, lead_tier,
	hubspot_contact_id, hubspot_deal_id,
	ip_address, user_agent, referrer, utm_source, utm_medium, utm_campaign,
	email_sent, crm_synced, created_at, updated_at`

// Create inserts a new row and fills in the generated ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, s *Submission) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `
		INSERT INTO roi_submissions (
			id, email, first_name, last_name, company, phone, website,
			industry, company_size, business_stage,
			monthly_revenue, average_order_value, monthly_orders,
			conversion_rate, cart_abandonment_rate, manual_hours_per_week, monthly_ad_spend,
			conservative_revenue, expected_revenue, optimistic_revenue,
			lead_score, lead_tier,
			ip_address, user_agent, referrer, utm_source, utm_medium, utm_campaign
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		s.ID, s.Email, s.FirstName, s.LastName, s.Company, s.Phone, s.Website,
		s.Industry, s.CompanySize, s.BusinessStage,
		s.MonthlyRevenue, s.AverageOrderValue, s.MonthlyOrders,
		s.ConversionRate, s.CartAbandonment, s.ManualHours, s.MonthlyAdSpend,
		s.ConservativeRevenue, s.ExpectedRevenue, s.OptimisticRevenue,
		s.LeadScore, string(s.LeadTier),
		s.IPAddress, s.UserAgent, s.Referrer, s.UTMSource, s.UTMMedium, s.UTMCampaign,
	).Scan(&createdAt, &updatedAt); err != nil {
		return fmt.Errorf("submissions: insert failed: %w", err)
	}
	s.CreatedAt = createdAt
	s.UpdatedAt = updatedAt
	return nil
}

// GetByID fetches a single submission.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	query := `SELECT` + submissionColumns + ` FROM roi_submissions WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	s, err := scanSubmission(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("submissions: select failed: %w", err)
	}
	return s, nil
}

// List returns submissions newest first. A zero filter limit defaults to 50.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT` + submissionColumns + `
		FROM roi_submissions
		WHERE ($1 = '' OR lead_tier = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, string(filter.Tier), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("submissions: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("submissions: scan failed: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkEmailSent flags the confirmation email as delivered.
func (r *PostgresRepository) MarkEmailSent(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE roi_submissions SET email_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("submissions: mark email sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCRMSynced records the CRM object IDs after a successful sync.
func (r *PostgresRepository) MarkCRMSynced(ctx context.Context, id, contactID, dealID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE roi_submissions
		SET crm_synced = TRUE, hubspot_contact_id = $2, hubspot_deal_id = $3, updated_at = NOW()
		WHERE id = $1`, id, contactID, dealID)
	if err != nil {
		return fmt.Errorf("submissions: mark crm synced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var s Submission
	var tier string
	if err := row.Scan(
		&s.ID, &s.Email, &s.FirstName, &s.LastName, &s.Company, &s.Phone, &s.Website,
		&s.Industry, &s.CompanySize, &s.BusinessStage,
		&s.MonthlyRevenue, &s.AverageOrderValue, &s.MonthlyOrders,
		&s.ConversionRate, &s.CartAbandonment, &s.ManualHours, &s.MonthlyAdSpend,
		&s.ConservativeRevenue, &s.ExpectedRevenue, &s.OptimisticRevenue,
		&s.LeadScore, &tier,
		&s.HubSpotContactID, &s.HubSpotDealID,
		&s.IPAddress, &s.UserAgent, &s.Referrer, &s.UTMSource, &s.UTMMedium, &s.UTMCampaign,
		&s.EmailSent, &s.CRMSynced, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.LeadTier = leadscore.Tier(tier)
	return &s, nil
}
