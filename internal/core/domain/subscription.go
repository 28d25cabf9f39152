package domain

// Tier is a named subscription plan.
type Tier string

const (
	TierBeta         Tier = "beta"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// SubscriptionLimits are the numeric quotas attached to a tier.
type SubscriptionLimits struct {
	MaxAnimals      int `json:"max_animals"`
	MaxTransactions int `json:"max_transactions"`
	MaxUsers        int `json:"max_users"`
}

// Feature flags gated by tier.
const (
	FeatureBasicTracking    = "basic_tracking"
	FeatureHealthRecords    = "health_records"
	FeatureFinancialReports = "financial_reports"
	FeatureWeatherForecast  = "weather_forecast"
	FeatureBulkExport       = "bulk_export"
	FeatureAPIAccess        = "api_access"
)

// TierPlan is one row of the static subscription table.
type TierPlan struct {
	Limits   SubscriptionLimits
	Features []string
}

// tierPlans is the single source of truth for what each plan allows.
var tierPlans = map[Tier]TierPlan{
	TierBeta: {
		Limits:   SubscriptionLimits{MaxAnimals: 50, MaxTransactions: 500, MaxUsers: 3},
		Features: []string{FeatureBasicTracking, FeatureHealthRecords},
	},
	TierProfessional: {
		Limits:   SubscriptionLimits{MaxAnimals: 500, MaxTransactions: 5000, MaxUsers: 15},
		Features: []string{FeatureBasicTracking, FeatureHealthRecords, FeatureFinancialReports, FeatureWeatherForecast, FeatureBulkExport},
	},
	TierEnterprise: {
		Limits:   SubscriptionLimits{MaxAnimals: 10000, MaxTransactions: 100000, MaxUsers: 100},
		Features: []string{FeatureBasicTracking, FeatureHealthRecords, FeatureFinancialReports, FeatureWeatherForecast, FeatureBulkExport, FeatureAPIAccess},
	},
}

// PlanFor returns the plan for a tier. Unknown tiers fall back to beta so a
// stale token can never unlock more than the smallest plan.
func PlanFor(tier Tier) TierPlan {
	if plan, ok := tierPlans[tier]; ok {
		return plan
	}
	return tierPlans[TierBeta]
}

// HasFeature reports whether the tier includes the named feature.
func HasFeature(tier Tier, feature string) bool {
	for _, f := range PlanFor(tier).Features {
		if f == feature {
			return true
		}
	}
	return false
}

// UsagePercentage expresses current counts as a share of the tier's quotas,
// for the dashboard's quota widgets. Values are 0-100, capped at 100.
type UsagePercentage struct {
	Animals      float64 `json:"animals"`
	Transactions float64 `json:"transactions"`
	Users        float64 `json:"users"`
}

// CurrentCounts carries whichever usage figures the caller knows. A nil
// pointer means "not supplied, skip this check".
type CurrentCounts struct {
	Animals      *int
	Transactions *int
	Users        *int
}

// CalculateUsagePercentage maps current counts onto the tier's limits.
func CalculateUsagePercentage(counts CurrentCounts, tier Tier) UsagePercentage {
	limits := PlanFor(tier).Limits
	return UsagePercentage{
		Animals:      percentage(counts.Animals, limits.MaxAnimals),
		Transactions: percentage(counts.Transactions, limits.MaxTransactions),
		Users:        percentage(counts.Users, limits.MaxUsers),
	}
}

func percentage(current *int, limit int) float64 {
	if current == nil || limit <= 0 {
		return 0
	}
	p := float64(*current) / float64(limit) * 100
	if p > 100 {
		return 100
	}
	return p
}
