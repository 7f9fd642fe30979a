// Package urssaf approximates the published micro-entrepreneur contribution
// rate tables. The simulator is a pure function of its inputs; it carries no
// state and does not pretend to be a real tax engine.
package urssaf

// Activity is the declared activity category.
type Activity string

const (
	ActivityCommercial Activity = "commercial" // achat/revente (BIC)
	ActivityArtisanal  Activity = "artisanal"  // prestations artisanales
	ActivityLiberal    Activity = "liberal"    // professions libérales (BNC)
)

// DefaultEstimateRate is the flat placeholder rate applied to dashboard
// revenue when no activity detail is known.
const DefaultEstimateRate = 0.22

// Base contribution rates as a fraction of revenue.
var baseRates = map[Activity]float64{
	ActivityCommercial: 0.124,
	ActivityArtisanal:  0.22,
	ActivityLiberal:    0.22,
}

// Versement libératoire rates; the flat-rate branch replaces the base rate
// entirely and ignores ACRE.
var flatRates = map[Activity]float64{
	ActivityCommercial: 0.01,
	ActivityArtisanal:  0.018,
	ActivityLiberal:    0.022,
}

// Result of a simulation. RatePercent is the final rate expressed in
// percent (12.4 for 0.124) for direct display.
type Result struct {
	RatePercent  float64 `json:"rate_percent"`
	Contribution float64 `json:"contribution"`
	Quarterly    float64 `json:"quarterly"`
	Monthly      float64 `json:"monthly"`
}

// Valid reports whether a is a known activity.
func (a Activity) Valid() bool {
	_, ok := baseRates[a]
	return ok
}

// Simulate estimates the annual contribution for the given revenue.
// ACRE halves the base rate (first-year reduction approximation); the
// versement libératoire option overrides the rate and wins over ACRE.
func Simulate(revenue float64, activity Activity, acre, flatRate bool) Result {
	rate := baseRates[activity]
	if flatRate {
		rate = flatRates[activity]
	} else if acre {
		rate = rate / 2
	}
	contribution := revenue * rate
	return Result{
		RatePercent:  rate * 100,
		Contribution: contribution,
		Quarterly:    contribution / 4,
		Monthly:      contribution / 12,
	}
}
