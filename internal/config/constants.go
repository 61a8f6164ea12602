package config

// Application constants
const (
	AppName = "nycsales"

	// EnvPrefix namespaces environment variables, e.g. NYCSALES_SAMPLER_SEED
	EnvPrefix = "NYCSALES"

	// File Paths (relative to the working directory)
	DefaultDataDir     = "data"
	DefaultReportsDir  = "reports"
	DefaultLogFile     = "logs/nycsales.log"
	DefaultFilePattern = "rollingsales_%s.csv"

	// Analysis constants of the original sales study
	DefaultReferenceYear         = 2018
	DefaultLogPriceThreshold     = 17.5
	DefaultResidentialClassChars = "ABCDR"
	DefaultMinArea               = 100.0
	DefaultPPCDraws              = 500
	DefaultDensityPoints         = 512

	DefaultSeed uint64 = 20180101
)

// DefaultExcludedClassCodes are the rental apartment building classes (walk-up
// and elevator) plus condo rentals. Co-op classes C6, C8, D0 and D4 are kept.
var DefaultExcludedClassCodes = []string{
	"C1", "C2", "C3", "C4", "C5", "C7", "C9",
	"D1", "D2", "D3", "D5", "D6", "D7", "D8", "D9",
	"RR",
}
