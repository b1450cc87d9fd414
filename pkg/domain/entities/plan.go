package entities

// PlanInput is the complete snapshot consumed by one planning run
type PlanInput struct {
	Lines         []LineID
	Demand        []DemandEntry
	Priorities    Priorities
	Rates         []RateEntry
	Calendar      []CalendarEntry
	LineCalendars []LineCalendarEntry
}

// AllocationRecord represents a quantity of a product assigned to a line in a month
type AllocationRecord struct {
	Product  ProductID `json:"product"`
	Line     LineID    `json:"line"`
	Month    Month     `json:"month"`
	Quantity float64   `json:"quantity"`
}

// UtilizationRecord is the consumed fraction of a line's available time in a month
type UtilizationRecord struct {
	Line          LineID  `json:"line"`
	Month         Month   `json:"month"`
	AvailableTime float64 `json:"available_time"`
	ConsumedTime  float64 `json:"consumed_time"`
	Utilization   float64 `json:"utilization"`
}

// FillRateRecord is the allocated fraction of a product's demand in a month
type FillRateRecord struct {
	Product   ProductID `json:"product"`
	Month     Month     `json:"month"`
	Demand    float64   `json:"demand"`
	Allocated float64   `json:"allocated"`
	FillRate  float64   `json:"fill_rate"`
}

// ShortfallRecord represents unmet demand for a product in a month.
// Shortfall is never carried to later months.
type ShortfallRecord struct {
	Product   ProductID `json:"product"`
	Month     Month     `json:"month"`
	Demand    float64   `json:"demand"`
	Allocated float64   `json:"allocated"`
	Shortfall float64   `json:"shortfall"`
}

// WarningCode classifies a configuration warning
type WarningCode string

const (
	WarnNoEligibleLine    WarningCode = "no_eligible_line"
	WarnUnusedLine        WarningCode = "unused_line"
	WarnZeroHorizonTime   WarningCode = "zero_horizon_time"
	WarnRateWithoutDemand WarningCode = "rate_without_demand"
	WarnSolverFallback    WarningCode = "solver_fallback"
)

// Warning is a non-fatal configuration finding reported with the plan
type Warning struct {
	Code    WarningCode `json:"code"`
	Product ProductID   `json:"product,omitempty"`
	Line    LineID      `json:"line,omitempty"`
	Month   Month       `json:"month,omitempty"`
	Message string      `json:"message"`
}

// Metadata summarises a planning run
type Metadata struct {
	Horizon         Horizon     `json:"horizon"`
	Policy          string      `json:"policy"`
	Lines           []LineID    `json:"lines"`
	Products        []ProductID `json:"products"`
	TotalDemand     float64     `json:"total_demand"`
	TotalAllocated  float64     `json:"total_allocated"`
	TotalShortfall  float64     `json:"total_shortfall"`
	OverallFillRate float64     `json:"overall_fill_rate"`
	Warnings        []Warning   `json:"warnings"`
}
