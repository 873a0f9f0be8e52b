// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for mortgage-calculator.
type Configuration struct {
	Common    Common        `yaml:"common"`
	Scenarios []Scenario    `yaml:"scenarios"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
	Storage   StorageConfig `yaml:"storage,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// StorageConfig points at the optional result cache and history database.
// Empty values disable the corresponding backend.
type StorageConfig struct {
	RedisAddress string `yaml:"redisAddress,omitempty"`
	PostgresDSN  string `yaml:"postgresDSN,omitempty"`
	CacheTTL     string `yaml:"cacheTTL,omitempty"`
}

// Costs holds the ancillary purchase costs.
type Costs struct {
	Notary           float64 `yaml:"notary"`
	Valuation        float64 `yaml:"valuation"`
	FinancialAdvisor float64 `yaml:"financialAdvisor"`
	RealEstateAgent  float64 `yaml:"realEstateAgent"`
	StructuralSurvey float64 `yaml:"structuralSurvey"`
}

// DefaultCosts returns the costs a new calculation starts with.
func DefaultCosts() Costs {
	return Costs{
		Notary:           constants.DefaultNotaryCost,
		Valuation:        constants.DefaultValuationCost,
		FinancialAdvisor: constants.DefaultFinancialAdvisorCost,
		RealEstateAgent:  constants.DefaultRealEstateAgentCost,
		StructuralSurvey: constants.DefaultStructuralSurvey,
	}
}

// CostOverrides replaces individual purchase costs for one scenario. Unset
// fields keep the common value; an explicit zero removes the cost.
type CostOverrides struct {
	Notary           *float64 `yaml:"notary,omitempty"`
	Valuation        *float64 `yaml:"valuation,omitempty"`
	FinancialAdvisor *float64 `yaml:"financialAdvisor,omitempty"`
	RealEstateAgent  *float64 `yaml:"realEstateAgent,omitempty"`
	StructuralSurvey *float64 `yaml:"structuralSurvey,omitempty"`
}

// Apply returns base with every set override replacing its field.
func (o CostOverrides) Apply(base Costs) Costs {
	merged := base
	for _, field := range []struct {
		override *float64
		target   *float64
	}{
		{o.Notary, &merged.Notary},
		{o.Valuation, &merged.Valuation},
		{o.FinancialAdvisor, &merged.FinancialAdvisor},
		{o.RealEstateAgent, &merged.RealEstateAgent},
		{o.StructuralSurvey, &merged.StructuralSurvey},
	} {
		if field.override != nil {
			*field.target = *field.override
		}
	}
	return merged
}

// Common holds the parameters shared between all scenarios.
type Common struct {
	Costs                    Costs   `yaml:"costs"`
	TransferTaxRate          float64 `yaml:"transferTaxRate"`
	PropertyAppreciationRate float64 `yaml:"propertyAppreciationRate"`
	ComparisonPeriodYears    int     `yaml:"comparisonPeriodYears"`
}

// Scenario holds one purchase to evaluate. Pointer and zero-valued optional
// fields fall back to Common.
type Scenario struct {
	Name                     string         `yaml:"name"`
	Active                   bool           `yaml:"active"`
	Price                    float64        `yaml:"price"`
	InterestRate             float64        `yaml:"interestRate"`
	FixedRatePeriod          int            `yaml:"fixedRatePeriod,omitempty"`
	TaxDeduction             float64        `yaml:"taxDeduction"`
	Savings                  float64        `yaml:"savings"`
	Rent                     float64        `yaml:"rent"`
	IsFirstTimeBuyer         bool           `yaml:"isFirstTimeBuyer"`
	TransferTaxRate          *float64       `yaml:"transferTaxRate,omitempty"`
	PropertyAppreciationRate *float64       `yaml:"propertyAppreciationRate,omitempty"`
	ComparisonPeriodYears    int            `yaml:"comparisonPeriodYears,omitempty"`
	Costs                    *CostOverrides `yaml:"costs,omitempty"`
}

// ResolvedCosts returns the common costs with the scenario's overrides
// applied field by field.
func (s Scenario) ResolvedCosts(common Common) Costs {
	if s.Costs != nil {
		return s.Costs.Apply(common.Costs)
	}
	return common.Costs
}

// ResolvedTransferTaxRate returns the scenario's transfer tax rate in percent.
func (s Scenario) ResolvedTransferTaxRate(common Common) float64 {
	if s.TransferTaxRate != nil {
		return *s.TransferTaxRate
	}
	return common.TransferTaxRate
}

// ResolvedAppreciationRate returns the scenario's property appreciation rate
// in percent.
func (s Scenario) ResolvedAppreciationRate(common Common) float64 {
	if s.PropertyAppreciationRate != nil {
		return *s.PropertyAppreciationRate
	}
	return common.PropertyAppreciationRate
}

// ResolvedComparisonYears returns the rent vs buy horizon for the scenario.
func (s Scenario) ResolvedComparisonYears(common Common) int {
	if s.ComparisonPeriodYears > 0 {
		return s.ComparisonPeriodYears
	}
	if common.ComparisonPeriodYears > 0 {
		return common.ComparisonPeriodYears
	}
	return constants.DefaultComparisonYears
}

// ActiveScenarios returns the scenarios flagged as active, in file order.
func (c *Configuration) ActiveScenarios() []Scenario {
	active := make([]Scenario, 0, len(c.Scenarios))
	for _, scenario := range c.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r,
// such as an uploaded file.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix("MORTGAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCosts()
	v.SetDefault("common.costs.notary", defaults.Notary)
	v.SetDefault("common.costs.valuation", defaults.Valuation)
	v.SetDefault("common.costs.financialAdvisor", defaults.FinancialAdvisor)
	v.SetDefault("common.costs.realEstateAgent", defaults.RealEstateAgent)
	v.SetDefault("common.costs.structuralSurvey", defaults.StructuralSurvey)
	v.SetDefault("common.transferTaxRate", constants.DefaultTransferTaxRate)
	v.SetDefault("common.propertyAppreciationRate", constants.DefaultAppreciationRate)
	v.SetDefault("common.comparisonPeriodYears", constants.DefaultComparisonYears)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns human-readable warnings. Hard input errors are reported when the
// scenario is calculated.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.ActiveScenarios()) == 0 {
		warnings = append(warnings, "no active scenarios are defined")
	}

	seen := make(map[string]bool, len(c.Scenarios))
	for i, scenario := range c.Scenarios {
		label := scenario.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("scenario %s has no name", label))
		} else if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("scenario name %q is used more than once", scenario.Name))
		}
		seen[scenario.Name] = true

		if !scenario.Active {
			continue
		}
		if scenario.Price > 0 && scenario.Savings > scenario.Price {
			warnings = append(warnings, fmt.Sprintf("scenario %s: savings (%.2f) exceed the price (%.2f)",
				label, scenario.Savings, scenario.Price))
		}
		if scenario.IsFirstTimeBuyer && scenario.Price >= constants.FirstTimeBuyerPriceLimit {
			warnings = append(warnings, fmt.Sprintf("scenario %s: price %.2f is not below %.0f, so the first-time-buyer exemption does not apply",
				label, scenario.Price, constants.FirstTimeBuyerPriceLimit))
		}
		if scenario.InterestRate == 0 && scenario.FixedRatePeriod == 0 {
			warnings = append(warnings, fmt.Sprintf("scenario %s: interest rate is 0 and no fixedRatePeriod is set for a reference rate", label))
		}
	}

	return warnings
}
