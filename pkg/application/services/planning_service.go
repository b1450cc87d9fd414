package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/allocation"
	"github.com/vsinha/capplan/pkg/domain/services/calendar"
	"github.com/vsinha/capplan/pkg/domain/services/capacity"
	"github.com/vsinha/capplan/pkg/domain/services/reporting"
)

// PlanningOptions configures a PlanningService
type PlanningOptions struct {
	Policy      allocation.Policy
	Parallel    bool
	LPTolerance float64
}

// PlanningService turns (demand, rates, calendar) into allocation,
// utilization and fill-rate tables. It holds no state between calls.
type PlanningService struct {
	allocator allocation.Allocator
	fallback  allocation.Allocator
	parallel  bool
	log       zerolog.Logger
	now       func() time.Time
}

// NewPlanningService creates a planning service for the configured policy
func NewPlanningService(opts PlanningOptions, log zerolog.Logger) (*PlanningService, error) {
	policy := opts.Policy
	if policy == "" {
		policy = allocation.PolicyGreedy
	}

	allocator, err := allocation.New(policy, allocation.Options{LPTolerance: opts.LPTolerance})
	if err != nil {
		return nil, fmt.Errorf("failed to create allocator: %w", err)
	}

	svc := &PlanningService{
		allocator: allocator,
		parallel:  opts.Parallel,
		log:       log.With().Str("component", "planner").Str("policy", string(policy)).Logger(),
		now:       time.Now,
	}
	if policy != allocation.PolicyGreedy {
		svc.fallback = allocation.NewWaterfall()
	}
	return svc, nil
}

// Policy returns the allocation policy in use
func (s *PlanningService) Policy() allocation.Policy {
	return s.allocator.Policy()
}

type monthOutcome struct {
	records  []entities.AllocationRecord
	warnings []entities.Warning
}

// Plan runs one complete planning pass. Either every output table is
// produced from the same input snapshot or an error is returned; a
// ConfigError is returned before any allocation happens.
func (s *PlanningService) Plan(ctx context.Context, input entities.PlanInput) (*dto.PlanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := s.now()
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()

	// Step 1: resolve the calendar into the planning horizon
	cal, err := calendar.Resolve(input.Calendar, input.LineCalendars)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calendar: %w", err)
	}

	// Step 2: build static line capacity
	model, err := capacity.Build(input.Lines, input.Rates, cal)
	if err != nil {
		return nil, fmt.Errorf("failed to build capacity model: %w", err)
	}

	// Step 3: validate and index the demand snapshot
	demand, products, err := indexDemand(input.Demand, cal)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand: %w", err)
	}

	horizon := model.Horizon()
	log.Debug().
		Int("months", len(horizon)).
		Int("lines", len(model.Lines())).
		Int("products", len(products)).
		Msg("Inputs validated")

	// Step 4: allocate month by month
	outcomes := make([]monthOutcome, len(horizon))
	allocateMonth := func(i int) error {
		month := horizon[i]
		monthDemand := make(map[entities.ProductID]float64, len(products))
		for _, p := range products {
			monthDemand[p] = demand.Get(month, p)
		}
		req := allocation.MonthRequest{
			Month:  month,
			Demand: monthDemand,
			Order:  allocation.OrderProducts(monthDemand, input.Priorities),
		}
		out, err := s.allocate(model, req, log)
		if err != nil {
			return err
		}
		outcomes[i] = out
		return nil
	}

	if s.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range horizon {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return allocateMonth(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range horizon {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := allocateMonth(i); err != nil {
				return nil, err
			}
		}
	}

	var allocations []entities.AllocationRecord
	var solverWarnings []entities.Warning
	for _, out := range outcomes {
		allocations = append(allocations, out.records...)
		solverWarnings = append(solverWarnings, out.warnings...)
	}
	sortAllocations(allocations, horizon)

	// Step 5: derive utilization, fill rate and totals
	report, err := reporting.Build(model, products, demand, allocations)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	warnings := append(reporting.Warnings(model, products, demand), solverWarnings...)
	if warnings == nil {
		warnings = []entities.Warning{}
	}
	if allocations == nil {
		allocations = []entities.AllocationRecord{}
	}
	for _, w := range warnings {
		log.Warn().Str("code", string(w.Code)).Msg(w.Message)
	}

	result := &dto.PlanResult{
		RunID:       runID,
		GeneratedAt: start.UTC(),
		Allocations: allocations,
		Utilization: report.Utilization,
		FillRates:   report.FillRates,
		Shortfalls:  report.Shortfalls,
		Metadata: entities.Metadata{
			Horizon:         horizon,
			Policy:          string(s.allocator.Policy()),
			Lines:           model.Lines(),
			Products:        products,
			TotalDemand:     report.TotalDemand,
			TotalAllocated:  report.TotalAllocated,
			TotalShortfall:  report.TotalShortfall,
			OverallFillRate: report.OverallFillRate,
			Warnings:        warnings,
		},
		Duration: s.now().Sub(start),
	}

	log.Info().
		Int("allocations", len(allocations)).
		Float64("total_demand", report.TotalDemand).
		Float64("total_allocated", report.TotalAllocated).
		Float64("fill_rate", report.OverallFillRate).
		Dur("duration", result.Duration).
		Msg("Planning run complete")

	return result, nil
}

func (s *PlanningService) allocate(
	model *capacity.Model,
	req allocation.MonthRequest,
	log zerolog.Logger,
) (monthOutcome, error) {
	records, err := s.allocator.AllocateMonth(model, req)
	if err == nil {
		log.Debug().Str("month", string(req.Month)).Int("allocations", len(records)).Msg("Month allocated")
		return monthOutcome{records: records}, nil
	}
	if s.fallback == nil || !errors.Is(err, allocation.ErrSolver) {
		return monthOutcome{}, fmt.Errorf("failed to allocate month %s: %w", req.Month, err)
	}

	log.Warn().Err(err).Str("month", string(req.Month)).Msg("Solver failed, using greedy waterfall")
	records, err = s.fallback.AllocateMonth(model, req)
	if err != nil {
		return monthOutcome{}, fmt.Errorf("failed to allocate month %s: %w", req.Month, err)
	}
	return monthOutcome{
		records: records,
		warnings: []entities.Warning{{
			Code:    entities.WarnSolverFallback,
			Month:   req.Month,
			Message: fmt.Sprintf("linear program failed for %s; greedy waterfall used", req.Month),
		}},
	}, nil
}

// indexDemand validates demand rows against the horizon. Products are
// returned sorted by identifier.
func indexDemand(
	rows []entities.DemandEntry,
	cal *calendar.Calendar,
) (reporting.DemandIndex, []entities.ProductID, error) {
	idx := make(reporting.DemandIndex)
	seen := make(map[entities.ProductID]bool)
	var products []entities.ProductID

	for _, row := range rows {
		key := string(row.Product) + "/" + string(row.Month)
		if row.Product == "" {
			return nil, nil, entities.NewConfigError("demand", key, "empty product identifier")
		}
		if !cal.Contains(row.Month) {
			return nil, nil, entities.NewConfigError("demand", key, "month %q is not in the calendar", row.Month)
		}
		if math.IsNaN(row.Quantity) || math.IsInf(row.Quantity, 0) {
			return nil, nil, entities.NewConfigError("demand", key, "quantity must be finite, got %v", row.Quantity)
		}
		if row.Quantity < 0 {
			return nil, nil, entities.NewConfigError("demand", key, "quantity must be non-negative, got %v", row.Quantity)
		}

		months, ok := idx[row.Month]
		if !ok {
			months = make(map[entities.ProductID]float64)
			idx[row.Month] = months
		}
		if _, dup := months[row.Product]; dup {
			return nil, nil, entities.NewConfigError("demand", key, "duplicate demand row")
		}
		months[row.Product] = row.Quantity

		if !seen[row.Product] {
			seen[row.Product] = true
			products = append(products, row.Product)
		}
	}

	slices.Sort(products)
	return idx, products, nil
}

// sortAllocations orders records by horizon month, product, then line
func sortAllocations(records []entities.AllocationRecord, horizon entities.Horizon) {
	pos := make(map[entities.Month]int, len(horizon))
	for i, m := range horizon {
		pos[m] = i
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if pos[a.Month] != pos[b.Month] {
			return pos[a.Month] < pos[b.Month]
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.Line < b.Line
	})
}
