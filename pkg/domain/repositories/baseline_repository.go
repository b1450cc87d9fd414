package repositories

import (
	"errors"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// ErrNoBaseline is returned when no baseline has been loaded
var ErrNoBaseline = errors.New("no baseline loaded")

// BaselineRepository provides access to the baseline planning inputs:
// lines, rates, calendars and the default demand table
type BaselineRepository interface {
	GetBaseline() (entities.PlanInput, error)
	LoadBaseline(input entities.PlanInput) error

	// WithDemand returns the baseline with its demand table and priorities
	// replaced wholesale. Nil priorities leave every product unranked.
	WithDemand(demand []entities.DemandEntry, priorities entities.Priorities) (entities.PlanInput, error)
}
