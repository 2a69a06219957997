package domain

import "fmt"

// Environment selects which regulator endpoint and credential set an
// operation targets. Sandbox and production are fully isolated: certificates,
// invoice chains, and regulator sessions never cross environments.
type Environment string

const (
	EnvironmentSandbox    Environment = "SANDBOX"
	EnvironmentProduction Environment = "PRODUCTION"
)

// ParseEnvironment validates and normalizes an environment string.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvironmentSandbox, EnvironmentProduction:
		return Environment(s), nil
	default:
		return "", fmt.Errorf("unknown environment %q", s)
	}
}

func (e Environment) Valid() bool {
	return e == EnvironmentSandbox || e == EnvironmentProduction
}

func (e Environment) String() string { return string(e) }
