package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

// BaselineRepository provides in-memory baseline storage
type BaselineRepository struct {
	mu       sync.RWMutex
	baseline *entities.PlanInput
}

// NewBaselineRepository creates a new in-memory baseline repository
func NewBaselineRepository() *BaselineRepository {
	return &BaselineRepository{}
}

// Verify interface compliance
var _ repositories.BaselineRepository = (*BaselineRepository)(nil)

// LoadBaseline replaces the stored baseline
func (r *BaselineRepository) LoadBaseline(input entities.PlanInput) error {
	stored := clone(input)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseline = &stored
	return nil
}

// GetBaseline returns a copy of the stored baseline
func (r *BaselineRepository) GetBaseline() (entities.PlanInput, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.baseline == nil {
		return entities.PlanInput{}, repositories.ErrNoBaseline
	}
	return clone(*r.baseline), nil
}

// WithDemand returns the baseline with demand and priorities replaced
func (r *BaselineRepository) WithDemand(demand []entities.DemandEntry, priorities entities.Priorities) (entities.PlanInput, error) {
	input, err := r.GetBaseline()
	if err != nil {
		return entities.PlanInput{}, err
	}

	input.Demand = slices.Clone(demand)
	input.Priorities = maps.Clone(priorities)
	return input, nil
}

func clone(in entities.PlanInput) entities.PlanInput {
	return entities.PlanInput{
		Lines:         slices.Clone(in.Lines),
		Demand:        slices.Clone(in.Demand),
		Priorities:    maps.Clone(in.Priorities),
		Rates:         slices.Clone(in.Rates),
		Calendar:      slices.Clone(in.Calendar),
		LineCalendars: slices.Clone(in.LineCalendars),
	}
}
