package smoke

import (
	"time"

	"github.com/okian/prefight/internal/testmatches"
)

// Default configuration constants.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTopN    = 20
	DefaultTimeout = 30 * time.Second
)

// Config holds a smoke run's configuration.
type Config struct {
	BaseURL string
	TopN    int
	Timeout time.Duration
	Matches testmatches.Config
}

// DefaultConfig returns a config aimed at a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		TopN:    DefaultTopN,
		Timeout: DefaultTimeout,
		Matches: testmatches.DefaultConfig(),
	}
}
