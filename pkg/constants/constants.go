// Package constants provides shared constants for the mortgage-calculator application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MonthlyRateDivisor converts an annual percentage into a monthly fraction.
	MonthlyRateDivisor = PercentageMultiplier * MonthsPerYear
)

// Mortgage term constants
const (
	// TermMonths is the fixed mortgage term used by the schedule builders (30 years).
	TermMonths = 360

	// TermYears is TermMonths expressed in years.
	TermYears = TermMonths / MonthsPerYear
)

// Purchase cost and tax policy constants
const (
	// BankGuaranteeRate is the bank guarantee charged as a fraction of the price.
	BankGuaranteeRate = 0.001

	// FirstTimeBuyerPriceLimit is the exclusive upper price bound for the
	// first-time-buyer transfer tax exemption.
	FirstTimeBuyerPriceLimit = 525000.0

	// MaxGuaranteePrice is the inclusive upper price bound for mortgage
	// guarantee eligibility.
	MaxGuaranteePrice = 435000.0

	// GuaranteeFeeRate is the guarantee fee charged on the loan amount.
	GuaranteeFeeRate = 0.007
)

// Rent vs buy projection constants
const (
	// RentGrowthRate is the fixed annual rent increase.
	RentGrowthRate = 0.02

	// InvestmentReturnRate is the fixed annual return on savings kept invested
	// when renting.
	InvestmentReturnRate = 0.03

	// DefaultComparisonYears is the default rent vs buy horizon.
	DefaultComparisonYears = 10

	// MaxComparisonYears bounds the rent vs buy horizon.
	MaxComparisonYears = 100

	// DefaultTransferTaxRate is the default transfer tax in percent of the price.
	DefaultTransferTaxRate = 2.0

	// DefaultAppreciationRate is the default annual property appreciation in percent.
	DefaultAppreciationRate = 3.0
)

// Default purchase costs, matching the calculator's initial state.
const (
	DefaultNotaryCost           = 1200.0
	DefaultValuationCost        = 800.0
	DefaultFinancialAdvisorCost = 2500.0
	DefaultRealEstateAgentCost  = 2750.0 * 1.21
	DefaultStructuralSurvey     = 800.0
)

// Price segment thresholds (exclusive upper bounds).
const (
	StarterSegmentLimit   = 300000.0
	MidMarketSegmentLimit = 500000.0
	PremiumSegmentLimit   = 800000.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimitRequests is the number of requests allowed per client per window.
	DefaultRateLimitRequests = 60

	// DefaultRateLimitWindow is the refill window for the rate limiter.
	DefaultRateLimitWindow = "1m"

	// DefaultCacheTTL is how long cached calculations live in Redis.
	DefaultCacheTTL = "24h"

	// DefaultHistoryLimit is the number of history records returned when no
	// limit is requested.
	DefaultHistoryLimit = 20

	// MaxHistoryLimit caps the number of history records returned at once.
	MaxHistoryLimit = 500
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)
