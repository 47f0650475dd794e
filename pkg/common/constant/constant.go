package constant

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// 1 SOL = 10^9 lamports
	LamportsPerSOL = 1_000_000_000

	DefaultValidatorBinary = "surfpool"
	DefaultLocalnetURL     = "http://127.0.0.1:8899"

	// Returned by the supervisor when no captured output is buffered.
	NoOutput = "No output available"

	AccountKeyPrefix = "account_"
)

// DefaultValidatorArgs starts surfpool headless with verbose logs.
var DefaultValidatorArgs = []string{"start", "--no-tui", "--debug"}
