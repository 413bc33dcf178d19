package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chimehq/roi-intake/internal/dispatch"
	"github.com/chimehq/roi-intake/internal/leadscore"
	"github.com/chimehq/roi-intake/internal/roi"
	"github.com/chimehq/roi-intake/pkg/logging"
)

const consultationURL = "https://calendly.com/chimehq/roi-consultation"

// Service sends the two emails that follow an accepted submission: a
// confirmation with projections to the lead, and an alert to the sales team.
type Service struct {
	email           EmailSender
	salesRecipients []string
	logger          *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, salesRecipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:           email,
		salesRecipients: salesRecipients,
		logger:          logger,
	}
}

// SendConfirmation emails the lead their ROI projections, score and the
// follow-up window for their tier.
func (s *Service) SendConfirmation(ctx context.Context, job dispatch.SubmissionJob) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping confirmation")
		return nil
	}

	projections := roi.Project(job.MonthlyRevenue)
	followUp := leadscore.FollowUpPlan(leadscore.Tier(job.LeadTier))

	firstName := job.FirstName
	if firstName == "" {
		firstName = "there"
	}

	subject := fmt.Sprintf("Your ROI Analysis Results - $%s/month Potential", formatUSD(projections.Expected.MonthlyRevenue))

	body := fmt.Sprintf(`Hello %s!

Thank you for using our ROI Calculator. Based on your current monthly revenue of $%s, here are your personalized growth projections:

Expected Scenario (Most Likely)
  New Monthly Revenue: $%s
  Monthly Increase: $%s
  Annual Benefit: $%s
  ROI: %d%%

Optimistic Scenario (Best Case)
  New Monthly Revenue: $%s
  Monthly Increase: $%s
  Annual Benefit: $%s
  ROI: %d%%

Conservative Scenario (Minimum Expected)
  New Monthly Revenue: $%s
  Monthly Increase: $%s
  Annual Benefit: $%s
  ROI: %d%%

Your Lead Score: %d/150 (%s Priority)

Our team will contact you within %s to discuss how we can help you achieve these results.

Schedule your free consultation: %s

Best regards,
The Chime HQ Team`,
		firstName,
		formatUSD(job.MonthlyRevenue),
		formatUSD(projections.Expected.MonthlyRevenue),
		formatUSD(projections.Expected.MonthlyIncrease),
		formatUSD(projections.Expected.AnnualBenefit),
		projections.Expected.ROIPercentage,
		formatUSD(projections.Optimistic.MonthlyRevenue),
		formatUSD(projections.Optimistic.MonthlyIncrease),
		formatUSD(projections.Optimistic.AnnualBenefit),
		projections.Optimistic.ROIPercentage,
		formatUSD(projections.Conservative.MonthlyRevenue),
		formatUSD(projections.Conservative.MonthlyIncrease),
		formatUSD(projections.Conservative.AnnualBenefit),
		projections.Conservative.ROIPercentage,
		job.LeadScore, job.LeadTier,
		followUp.Timing,
		consultationURL,
	)

	html := s.confirmationHTML(firstName, job, projections, followUp)

	msg := EmailMessage{
		To:      job.Email,
		ToName:  strings.TrimSpace(job.FirstName + " " + job.LastName),
		Subject: subject,
		Body:    body,
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: confirmation email for %s: %w", job.SubmissionID, err)
	}
	s.logger.Info("confirmation email sent", "submission_id", job.SubmissionID, "to", job.Email)
	return nil
}

// SendInternalNotification emails the sales team the lead details, score and
// scoring insights so they can prioritize follow-up.
func (s *Service) SendInternalNotification(ctx context.Context, job dispatch.SubmissionJob) error {
	if s.email == nil || len(s.salesRecipients) == 0 {
		s.logger.Debug("notify: sales recipients not configured, skipping internal notification")
		return nil
	}

	followUp := leadscore.FollowUpPlan(leadscore.Tier(job.LeadTier))
	expectedRevenue := job.MonthlyRevenue * 1.30
	annualBenefit := roi.ExpectedAnnualBenefit(job.MonthlyRevenue)

	subject := fmt.Sprintf("New %s Lead: %s %s (Score: %d)", job.LeadTier, job.FirstName, job.LastName, job.LeadScore)

	insightLines := ""
	for _, insight := range job.Insights {
		insightLines += "  - " + insight + "\n"
	}
	if insightLines == "" {
		insightLines = "  (none)\n"
	}

	body := fmt.Sprintf(`New ROI Calculator Submission

Lead Information
  Name: %s %s
  Email: %s
  Phone: %s
  Company: %s
  Website: %s

Business Details
  Industry: %s
  Company Size: %s
  Business Stage: %s
  Monthly Revenue: $%s
  Average Order Value: $%s
  Monthly Orders: %s

Lead Scoring
  Lead Score: %d/150
  Tier: %s
  Follow-up Priority: %s

Insights
%s
ROI Projections
  Expected Monthly Revenue: $%s
  Expected Annual Benefit: $%s

Next Steps
  Contact this lead within %s.

Submission ID: %s`,
		job.FirstName, job.LastName,
		job.Email,
		orNotProvided(job.Phone),
		orNotProvided(job.Company),
		orNotProvided(job.Website),
		orNotSpecified(job.Industry),
		orNotSpecified(job.CompanySize),
		orNotSpecified(job.BusinessStage),
		formatUSD(job.MonthlyRevenue),
		formatUSD(job.AverageOrderValue),
		formatCount(job.MonthlyOrders),
		job.LeadScore, job.LeadTier, followUp.Timing,
		insightLines,
		formatUSD(expectedRevenue),
		formatUSD(annualBenefit),
		followUp.Timing,
		job.SubmissionID,
	)

	var errs []error
	for _, recipient := range s.salesRecipients {
		msg := EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send sales alert", "error", err, "to", recipient)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sales notification(s) failed", len(errs))
	}
	s.logger.Info("sales alert sent", "submission_id", job.SubmissionID, "tier", job.LeadTier)
	return nil
}

func (s *Service) confirmationHTML(firstName string, job dispatch.SubmissionJob, p roi.Projections, followUp leadscore.FollowUp) string {
	scenarioBlock := func(title string, sc roi.Scenario) string {
		return fmt.Sprintf(`<div style="background: white; margin: 20px 0; padding: 20px; border-radius: 8px; border-left: 4px solid #667eea;">
<h3>%s</h3>
<p><strong>New Monthly Revenue: $%s</strong></p>
<p>Monthly Increase: $%s</p>
<p>Annual Benefit: $%s</p>
<p>ROI: %d%%</p>
</div>`, title, formatUSD(sc.MonthlyRevenue), formatUSD(sc.MonthlyIncrease), formatUSD(sc.AnnualBenefit), sc.ROIPercentage)
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
<h1>Your ROI Analysis Results</h1>
</div>
<div style="background: #f9f9f9; padding: 30px;">
<h2>Hello %s!</h2>
<p>Thank you for using our ROI Calculator. Based on your current monthly revenue of <strong>$%s</strong>, here are your personalized growth projections:</p>
%s%s%s
<h3>Your Lead Score: %d/150 (%s Priority)</h3>
<p>Our team will contact you within <strong>%s</strong> to discuss how we can help you achieve these results.</p>
<a href="%s" style="background: #667eea; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; margin: 20px 0;">Schedule Your Free Consultation</a>
<p>Best regards,<br>The Chime HQ Team</p>
</div>
</div>`,
		firstName,
		formatUSD(job.MonthlyRevenue),
		scenarioBlock("Expected Scenario (Most Likely)", p.Expected),
		scenarioBlock("Optimistic Scenario (Best Case)", p.Optimistic),
		scenarioBlock("Conservative Scenario (Minimum Expected)", p.Conservative),
		job.LeadScore, job.LeadTier,
		followUp.Timing,
		consultationURL,
	)
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

// formatUSD renders a rounded dollar amount with comma separators.
func formatUSD(amount float64) string {
	return formatCount(int(amount + 0.5))
}

func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
