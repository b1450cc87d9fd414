package csv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// ManifestFile is the optional manifest looked up in a scenario directory
const ManifestFile = "scenario.yaml"

// Default file names inside a scenario directory
const (
	DefaultDemandFile       = "demand.csv"
	DefaultRatesFile        = "rates.csv"
	DefaultCalendarFile     = "calendar.csv"
	DefaultLineCalendarFile = "line_calendar.csv"
)

// Manifest describes a scenario directory
type Manifest struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Demand       string         `yaml:"demand"`
	Rates        string         `yaml:"rates"`
	Calendar     string         `yaml:"calendar"`
	LineCalendar string         `yaml:"line_calendar"`
	Priorities   map[string]int `yaml:"priorities"`
}

// Files are the resolved input table paths. LineCalendar may be empty.
type Files struct {
	Demand       string
	Rates        string
	Calendar     string
	LineCalendar string
}

// Scenario is a fully loaded set of planning inputs
type Scenario struct {
	Name  string
	Files Files
	Input entities.PlanInput
}

// LoadManifest parses a scenario manifest
func (l *Loader) LoadManifest(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", filename, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, err)
	}
	return &m, nil
}

// ResolveFiles works out the input table paths for dir. Explicit paths in
// override win over the manifest, which wins over the default file names.
func (l *Loader) ResolveFiles(dir string, override Files) (Files, *Manifest, error) {
	manifest := &Manifest{}
	if dir != "" {
		path := filepath.Join(dir, ManifestFile)
		if _, err := os.Stat(path); err == nil {
			m, err := l.LoadManifest(path)
			if err != nil {
				return Files{}, nil, err
			}
			manifest = m
		}
	}

	pick := func(explicit, fromManifest, fallback string) string {
		if explicit != "" {
			return explicit
		}
		if dir == "" {
			return ""
		}
		if fromManifest != "" {
			return filepath.Join(dir, fromManifest)
		}
		return filepath.Join(dir, fallback)
	}

	files := Files{
		Demand:       pick(override.Demand, manifest.Demand, DefaultDemandFile),
		Rates:        pick(override.Rates, manifest.Rates, DefaultRatesFile),
		Calendar:     pick(override.Calendar, manifest.Calendar, DefaultCalendarFile),
		LineCalendar: pick(override.LineCalendar, manifest.LineCalendar, DefaultLineCalendarFile),
	}

	if files.Demand == "" || files.Rates == "" || files.Calendar == "" {
		return Files{}, nil, errors.New("demand, rates and calendar files are required (or a scenario directory)")
	}

	// the line calendar is optional unless named explicitly
	if override.LineCalendar == "" && manifest.LineCalendar == "" && files.LineCalendar != "" {
		if _, err := os.Stat(files.LineCalendar); err != nil {
			files.LineCalendar = ""
		}
	}

	return files, manifest, nil
}

// LoadScenario resolves and loads every input table of a scenario
func (l *Loader) LoadScenario(dir string, override Files) (*Scenario, error) {
	files, manifest, err := l.ResolveFiles(dir, override)
	if err != nil {
		return nil, err
	}

	demand, err := l.LoadDemand(files.Demand)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand: %w", err)
	}
	rates, err := l.LoadRates(files.Rates)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	calendar, err := l.LoadCalendar(files.Calendar)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}

	var overrides []entities.LineCalendarEntry
	if files.LineCalendar != "" {
		overrides, err = l.LoadLineCalendar(files.LineCalendar)
		if err != nil {
			return nil, fmt.Errorf("failed to load line calendar: %w", err)
		}
	}

	// manifest priorities fill in products the demand table left unranked
	priorities := demand.Priorities
	for product, p := range manifest.Priorities {
		id := entities.ProductID(product)
		if _, ok := priorities[id]; !ok {
			priorities[id] = p
		}
	}

	name := manifest.Name
	if name == "" && dir != "" {
		name = filepath.Base(dir)
	}

	return &Scenario{
		Name:  name,
		Files: files,
		Input: entities.PlanInput{
			Lines:         rates.Lines,
			Demand:        demand.Entries,
			Priorities:    priorities,
			Rates:         rates.Entries,
			Calendar:      calendar,
			LineCalendars: overrides,
		},
	}, nil
}
