package domain

// AuthSettings is what the auth service reports about its own configuration,
// judged against what the onboarding flow needs.
type AuthSettings struct {
	StatusCode int
	LatencyMS  int64

	EmailEnabled      bool
	SignupDisabled    bool
	MailerAutoconfirm bool
	// Providers lists the enabled sign-in providers, sorted.
	Providers []string

	Findings []SettingsFinding
	Error    *RunError
}

// SettingsFinding is one verdict about a setting.
type SettingsFinding struct {
	Name      string
	Status    StepStatus
	Message   string
	Diagnosis Diagnosis
}

// Failures counts failed findings; a transport error counts as one.
func (s AuthSettings) Failures() int {
	n := 0
	if s.Error != nil {
		n++
	}
	for _, f := range s.Findings {
		if f.Status == StatusFail {
			n++
		}
	}
	return n
}
