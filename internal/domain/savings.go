package domain

// Fuel pricing inputs used to translate distance savings into money.
type FuelParams struct {
	PricePerGallon float64
	MPG            float64
}

// Defaults carried over from the original dispatcher tool.
var DefaultFuelParams = FuelParams{PricePerGallon: 2.859, MPG: 18.0}

// FuelSavings is the fuel cost comparison derived from route distances.
type FuelSavings struct {
	BaselineGallons  float64
	OptimizedGallons float64
	BaselineCost     float64
	OptimizedCost    float64
	Saving           float64
}

// SavingsReport compares the user's order with the optimized order on the same
// matrix. Saving may be negative; that is reported, not corrected.
type SavingsReport struct {
	Metric        Metric
	BaselineCost  float64
	OptimizedCost float64
	Saving        float64
	PercentSaving float64
	// Comparable is false when either route crosses an unreachable leg; costs are
	// then +Inf and Saving/PercentSaving are zero.
	Comparable               bool
	BaselineUnreachableLegs  int
	OptimizedUnreachableLegs int
	// Distance totals in meters, present when the matrix carries distances.
	BaselineDistanceMeters  *float64
	OptimizedDistanceMeters *float64
	Fuel                    *FuelSavings
}
