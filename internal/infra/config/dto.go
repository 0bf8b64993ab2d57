package config

import "time"

// fileConfig mirrors supacheck.yaml. Keys double as viper keys.
type fileConfig struct {
	Project struct {
		URL            string `mapstructure:"url"`
		AnonKey        string `mapstructure:"anon_key"`
		ServiceRoleKey string `mapstructure:"service_role_key"`
		DatabaseURL    string `mapstructure:"database_url"`
	} `mapstructure:"project"`

	Check struct {
		EmailPrefix    string `mapstructure:"email_prefix"`
		EmailDomain    string `mapstructure:"email_domain"`
		Password       string `mapstructure:"password"`
		ProfileTable   string `mapstructure:"profile_table"`
		ConflictColumn string `mapstructure:"conflict_column"`
		ProfileFile    string `mapstructure:"profile_file"`

		// A list rather than a map: viper splits keys on "." and lowercases them.
		Assertions []assertionDTO `mapstructure:"assertions"`
	} `mapstructure:"check"`

	Clear struct {
		Tables []string `mapstructure:"tables"`
	} `mapstructure:"clear"`

	Output struct {
		ReportsDir string `mapstructure:"reports_dir"`
		Masking    bool   `mapstructure:"masking"`
		Save       bool   `mapstructure:"save"`
	} `mapstructure:"output"`

	HTTP struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"http"`
}

type assertionDTO struct {
	Step     string   `mapstructure:"step"`
	Path     string   `mapstructure:"path"`
	Exists   bool     `mapstructure:"exists"`
	Eq       *string  `mapstructure:"eq"`
	Contains *string  `mapstructure:"contains"`
	Matches  *string  `mapstructure:"matches"`
	Gt       *float64 `mapstructure:"gt"`
	Lt       *float64 `mapstructure:"lt"`
}
