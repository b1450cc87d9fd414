package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/application/services"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/csv"
)

func TestGenerateCommand_ProducesLoadableScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "synthetic")

	cmd := NewGenerateCommand(GenerateConfig{
		Products:  12,
		Lines:     4,
		Months:    6,
		Load:      1.3,
		OutputDir: dir,
		Seed:      42,
		Stdout:    &bytes.Buffer{},
	})
	require.NoError(t, cmd.Execute(context.Background()))

	scenario, err := csv.NewLoader().LoadScenario(dir, csv.Files{})
	require.NoError(t, err)

	assert.Equal(t, "synthetic", scenario.Name)
	assert.Len(t, scenario.Input.Lines, 4)
	assert.Len(t, scenario.Input.Calendar, 6)
	assert.Len(t, scenario.Input.Demand, 12*6)
	assert.Equal(t, 1, scenario.Input.Priorities["PRODUCT_001"])
	assert.Equal(t, "2025-01", string(scenario.Input.Calendar[0].Month))
	assert.Equal(t, "2025-06", string(scenario.Input.Calendar[5].Month))

	planner, err := services.NewPlanningService(services.PlanningOptions{}, zerolog.Nop())
	require.NoError(t, err)
	result, err := planner.Plan(context.Background(), scenario.Input)
	require.NoError(t, err)

	// every product has an eligible line, so nothing is flagged
	for _, w := range result.Metadata.Warnings {
		assert.NotEqual(t, "no_eligible_line", string(w.Code))
	}
	assert.Greater(t, result.Metadata.TotalAllocated, 0.0)
}

func TestGenerateCommand_SeedIsReproducible(t *testing.T) {
	generate := func() []byte {
		dir := t.TempDir()
		cmd := NewGenerateCommand(GenerateConfig{
			Products: 5, Lines: 2, Months: 3, Load: 1, OutputDir: dir, Seed: 7, Stdout: &bytes.Buffer{},
		})
		require.NoError(t, cmd.Execute(context.Background()))
		data, err := os.ReadFile(filepath.Join(dir, csv.DefaultDemandFile))
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, generate(), generate())
}

func TestGenerateCommand_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config GenerateConfig
	}{
		{"no products", GenerateConfig{Lines: 1, Months: 1, OutputDir: "x"}},
		{"negative load", GenerateConfig{Products: 1, Lines: 1, Months: 1, Load: -1, OutputDir: "x"}},
		{"no output", GenerateConfig{Products: 1, Lines: 1, Months: 1}},
		{"bad start", GenerateConfig{Products: 1, Lines: 1, Months: 1, OutputDir: "x", StartMonth: "January"}},
		{"eligibility above one", GenerateConfig{Products: 1, Lines: 1, Months: 1, OutputDir: "x", Eligibility: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGenerateCommand(tt.config).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation error")
		})
	}
}
