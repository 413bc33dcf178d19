package leadscore

import "time"

// Tier is the follow-up priority bucket derived from a lead score.
type Tier string

const (
	TierHot  Tier = "Hot"
	TierWarm Tier = "Warm"
	TierCold Tier = "Cold"
)

// Tier thresholds. Hot is the top band, Cold catches everything under Warm.
const (
	hotThreshold  = 100
	warmThreshold = 60
)

// AssignTier maps a score onto its tier. Total over all integers: anything
// below the Warm threshold, including out-of-range input, is Cold.
func AssignTier(score int) Tier {
	switch {
	case score >= hotThreshold:
		return TierHot
	case score >= warmThreshold:
		return TierWarm
	default:
		return TierCold
	}
}

// FollowUp describes how quickly and by which channel the sales team should
// reach out to a lead of a given tier.
type FollowUp struct {
	Window   time.Duration `json:"-"`
	Timing   string        `json:"timing"`
	Priority string        `json:"priority"`
	Approach string        `json:"approach"`
}

var followUps = map[Tier]FollowUp{
	TierHot: {
		Window:   time.Hour,
		Timing:   "1 hour",
		Priority: "Immediate",
		Approach: "Phone call + personalized email",
	},
	TierWarm: {
		Window:   24 * time.Hour,
		Timing:   "24 hours",
		Priority: "High",
		Approach: "Personalized email + follow-up call",
	},
	TierCold: {
		Window:   72 * time.Hour,
		Timing:   "3 days",
		Priority: "Standard",
		Approach: "Email nurture sequence",
	},
}

// FollowUpPlan returns the follow-up SLA for a tier, defaulting to Cold for
// unknown tiers.
func FollowUpPlan(tier Tier) FollowUp {
	if plan, ok := followUps[tier]; ok {
		return plan
	}
	return followUps[TierCold]
}
