package domain

import "time"

// Config is the fully merged supacheck configuration (file < env < flags).
type Config struct {
	Project ProjectConfig
	Check   CheckConfig
	Clear   ClearConfig
	Output  OutputConfig
	HTTP    HTTPConfig
}

type ProjectConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	DatabaseURL    string
}

type CheckConfig struct {
	EmailPrefix    string
	EmailDomain    string
	Password       string
	ProfileTable   string
	ConflictColumn string

	// ProfileFile points to an optional YAML payload fixture.
	ProfileFile string

	// Assertions are extra JSONPath checks per step, keyed by expression.
	// A failing one fails the step.
	Assertions map[StepName]map[string]JSONPathAssertion
}

type ClearConfig struct {
	Tables []string
}

type OutputConfig struct {
	ReportsDir string
	Masking    bool
	Save       bool
}

type HTTPConfig struct {
	Timeout time.Duration
}

// DefaultConfig mirrors the values the manual check always used.
func DefaultConfig() Config {
	return Config{
		Check: CheckConfig{
			EmailPrefix:    "test",
			EmailDomain:    "example.com",
			Password:       "TestPassword123!",
			ProfileTable:   "profiles",
			ConflictColumn: "id",
		},
		Clear: ClearConfig{
			Tables: []string{
				"workouts",
				"activities",
				"weight_logs",
				"health_metrics",
				"nutrition_entries",
				"profiles",
			},
		},
		Output: OutputConfig{
			ReportsDir: "reports",
			Masking:    true,
			Save:       true,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// ProjectSpec describes the directory `supacheck init` scaffolds.
type ProjectSpec struct {
	Root       string
	ProjectURL string
}
