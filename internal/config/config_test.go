package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test config file",
			configPath: "../../test/test_config.yaml",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Logging.Level != "warn" {
		t.Errorf("Expected logging level warn, got %q", config.Logging.Level)
	}
	if config.Output.Format != constants.OutputFormatPretty {
		t.Errorf("Expected output format pretty, got %q", config.Output.Format)
	}

	if config.Common.Costs.RealEstateAgent != 3327.5 {
		t.Errorf("Expected real estate agent cost 3327.5, got %v", config.Common.Costs.RealEstateAgent)
	}
	if config.Common.ComparisonPeriodYears != 10 {
		t.Errorf("Expected comparison period 10, got %d", config.Common.ComparisonPeriodYears)
	}

	if len(config.Scenarios) != 4 {
		t.Fatalf("Expected 4 scenarios, got %d", len(config.Scenarios))
	}

	starter := config.Scenarios[0]
	if starter.Name != "Starter apartment" || !starter.Active {
		t.Errorf("Unexpected first scenario: %+v", starter)
	}
	if starter.Price != 310000 || starter.Savings != 40000 || starter.InterestRate != 2.0 {
		t.Errorf("Unexpected starter figures: %+v", starter)
	}
	if starter.TaxDeduction != 36.93 || starter.Rent != 1400 {
		t.Errorf("Unexpected starter deduction or rent: %+v", starter)
	}
	if starter.Costs != nil {
		t.Error("Expected no cost override on the starter scenario")
	}

	firstHome := config.Scenarios[1]
	if !firstHome.IsFirstTimeBuyer {
		t.Error("Expected first home to be a first-time buyer")
	}
	if firstHome.FixedRatePeriod != 10 {
		t.Errorf("Expected fixed rate period 10, got %d", firstHome.FixedRatePeriod)
	}
	if firstHome.ComparisonPeriodYears != 15 {
		t.Errorf("Expected comparison period override 15, got %d", firstHome.ComparisonPeriodYears)
	}

	family := config.Scenarios[2]
	if family.Costs == nil {
		t.Fatal("Expected a cost override on the family house scenario")
	}
	if family.Costs.RealEstateAgent == nil || *family.Costs.RealEstateAgent != 5000 {
		t.Errorf("Expected overridden agent cost 5000, got %v", family.Costs.RealEstateAgent)
	}
	if family.PropertyAppreciationRate == nil || *family.PropertyAppreciationRate != 1.5 {
		t.Errorf("Expected appreciation override 1.5, got %v", family.PropertyAppreciationRate)
	}

	if config.Scenarios[3].Active {
		t.Error("Expected the villa scenario to be inactive")
	}
	if got := len(config.ActiveScenarios()); got != 3 {
		t.Errorf("Expected 3 active scenarios, got %d", got)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	yaml := `
scenarios:
  - name: Minimal
    active: true
    price: 250000
    interestRate: 3.5
    savings: 20000
`
	config, err := LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if config.Common.Costs != DefaultCosts() {
		t.Errorf("Expected default costs %+v, got %+v", DefaultCosts(), config.Common.Costs)
	}
	if config.Common.TransferTaxRate != constants.DefaultTransferTaxRate {
		t.Errorf("Expected default transfer tax rate, got %v", config.Common.TransferTaxRate)
	}
	if config.Common.PropertyAppreciationRate != constants.DefaultAppreciationRate {
		t.Errorf("Expected default appreciation rate, got %v", config.Common.PropertyAppreciationRate)
	}
	if config.Common.ComparisonPeriodYears != constants.DefaultComparisonYears {
		t.Errorf("Expected default comparison period, got %d", config.Common.ComparisonPeriodYears)
	}
	// The CLI picks the output format when the file leaves it unset.
	if config.Output.Format != "" {
		t.Errorf("Expected unset output format, got %q", config.Output.Format)
	}
}

func TestLoadConfigurationExplicitZeroCost(t *testing.T) {
	yaml := `
common:
  costs:
    realEstateAgent: 0
scenarios:
  - name: No agent
    active: true
    price: 250000
`
	config, err := LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if config.Common.Costs.RealEstateAgent != 0 {
		t.Errorf("Expected explicit zero agent cost, got %v", config.Common.Costs.RealEstateAgent)
	}
	if config.Common.Costs.Notary != constants.DefaultNotaryCost {
		t.Errorf("Expected default notary cost alongside override, got %v", config.Common.Costs.Notary)
	}
}

func TestLoadConfigurationPartialScenarioCosts(t *testing.T) {
	yaml := `
common:
  costs:
    notary: 1500
scenarios:
  - name: Cheaper survey
    active: true
    price: 250000
    costs:
      structuralSurvey: 0
      valuation: 650
`
	config, err := LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	got := config.Scenarios[0].ResolvedCosts(config.Common)
	expected := Costs{
		Notary:           1500,
		Valuation:        650,
		FinancialAdvisor: constants.DefaultFinancialAdvisorCost,
		RealEstateAgent:  constants.DefaultRealEstateAgentCost,
		StructuralSurvey: 0,
	}
	if got != expected {
		t.Errorf("ResolvedCosts() = %+v, expected %+v", got, expected)
	}
}

func TestLoadConfigurationFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "output:\n  format: csv\nscenarios:\n  - name: File\n    active: true\n    price: 100000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Output.Format != constants.OutputFormatCSV {
		t.Errorf("Expected csv output format, got %q", config.Output.Format)
	}
}

func TestLoadConfigurationInvalidYAML(t *testing.T) {
	_, err := LoadConfigurationFromReader(strings.NewReader("scenarios: [unclosed"))
	if err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestScenarioResolution(t *testing.T) {
	common := Common{
		Costs:                    DefaultCosts(),
		TransferTaxRate:          2.0,
		PropertyAppreciationRate: 3.0,
		ComparisonPeriodYears:    10,
	}
	notary := 1.0
	zero := 0.0
	override := CostOverrides{Notary: &notary, StructuralSurvey: &zero}
	merged := DefaultCosts()
	merged.Notary = 1
	merged.StructuralSurvey = 0
	tax := 0.0
	appreciation := -1.0

	tests := []struct {
		name                 string
		scenario             Scenario
		common               Common
		expectedCosts        Costs
		expectedTax          float64
		expectedAppreciation float64
		expectedYears        int
	}{
		{
			name:                 "inherits common values",
			scenario:             Scenario{},
			common:               common,
			expectedCosts:        DefaultCosts(),
			expectedTax:          2.0,
			expectedAppreciation: 3.0,
			expectedYears:        10,
		},
		{
			name: "scenario overrides win",
			scenario: Scenario{
				Costs:                    &override,
				TransferTaxRate:          &tax,
				PropertyAppreciationRate: &appreciation,
				ComparisonPeriodYears:    25,
			},
			common:               common,
			expectedCosts:        merged,
			expectedTax:          0,
			expectedAppreciation: -1,
			expectedYears:        25,
		},
		{
			name:          "horizon falls back to the built-in default",
			scenario:      Scenario{},
			common:        Common{},
			expectedYears: constants.DefaultComparisonYears,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scenario.ResolvedCosts(tt.common); got != tt.expectedCosts {
				t.Errorf("ResolvedCosts() = %+v, expected %+v", got, tt.expectedCosts)
			}
			if got := tt.scenario.ResolvedTransferTaxRate(tt.common); got != tt.expectedTax {
				t.Errorf("ResolvedTransferTaxRate() = %v, expected %v", got, tt.expectedTax)
			}
			if got := tt.scenario.ResolvedAppreciationRate(tt.common); got != tt.expectedAppreciation {
				t.Errorf("ResolvedAppreciationRate() = %v, expected %v", got, tt.expectedAppreciation)
			}
			if got := tt.scenario.ResolvedComparisonYears(tt.common); got != tt.expectedYears {
				t.Errorf("ResolvedComparisonYears() = %d, expected %d", got, tt.expectedYears)
			}
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		conf     Configuration
		contains []string
	}{
		{
			name: "clean configuration",
			conf: Configuration{Scenarios: []Scenario{
				{Name: "A", Active: true, Price: 300000, InterestRate: 3, Savings: 30000},
			}},
		},
		{
			name:     "no active scenarios",
			conf:     Configuration{Scenarios: []Scenario{{Name: "A", Price: 300000, InterestRate: 3}}},
			contains: []string{"no active scenarios"},
		},
		{
			name: "duplicate and missing names",
			conf: Configuration{Scenarios: []Scenario{
				{Name: "A", Active: true, Price: 300000, InterestRate: 3},
				{Name: "A", Active: true, Price: 300000, InterestRate: 3},
				{Active: true, Price: 300000, InterestRate: 3},
			}},
			contains: []string{`"A" is used more than once`, "scenario #3 has no name"},
		},
		{
			name: "savings above price",
			conf: Configuration{Scenarios: []Scenario{
				{Name: "Rich", Active: true, Price: 100000, InterestRate: 3, Savings: 150000},
			}},
			contains: []string{"savings (150000.00) exceed the price"},
		},
		{
			name: "first-time buyer above threshold",
			conf: Configuration{Scenarios: []Scenario{
				{Name: "Big", Active: true, Price: 525000, InterestRate: 3, IsFirstTimeBuyer: true},
			}},
			contains: []string{"first-time-buyer exemption does not apply"},
		},
		{
			name: "missing interest rate",
			conf: Configuration{Scenarios: []Scenario{
				{Name: "NoRate", Active: true, Price: 300000},
			}},
			contains: []string{"no fixedRatePeriod"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.conf.ValidateConfiguration()
			if len(tt.contains) == 0 && len(warnings) != 0 {
				t.Errorf("Expected no warnings, got %v", warnings)
			}
			for _, want := range tt.contains {
				found := false
				for _, w := range warnings {
					if strings.Contains(w, want) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("Expected a warning containing %q, got %v", want, warnings)
				}
			}
		})
	}
}
