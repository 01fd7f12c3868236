package model

// IntegrationSettings is the singleton record holding the Desk365 credentials.
// It is stored encrypted as a single row.
type IntegrationSettings struct {
	APIToken          string `json:"apiToken"`
	DueInBusinessDays bool   `json:"dueInBusinessDays"`
}

// Masked returns a copy safe to send to admin clients.
func (s IntegrationSettings) Masked() IntegrationSettings {
	if s.APIToken != "" {
		s.APIToken = "********"
	}
	return s
}
