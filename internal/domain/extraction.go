package domain

// Signal is a tri-state boolean for analysis outputs that may be absent.
// Absence means "do not change anything", which is distinct from false.
type Signal int

const (
	SignalUnknown Signal = iota
	SignalTrue
	SignalFalse
)

// SignalFromBool converts a known boolean into a Signal.
func SignalFromBool(v bool) Signal {
	if v {
		return SignalTrue
	}
	return SignalFalse
}

// Bool returns the signal value and whether it is known.
func (s Signal) Bool() (value, known bool) {
	switch s {
	case SignalTrue:
		return true, true
	case SignalFalse:
		return false, true
	}
	return false, false
}

// Preferred service time values accepted from extraction.
const (
	ServiceTimeAM      = "AM"
	ServiceTimePM      = "PM"
	ServiceTimeAnytime = "anytime"
)

// ExtractedCallData holds structured data extracted from a call, merged from
// the provider's analysis output, dynamic variables, and transcript fallback.
type ExtractedCallData struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`

	PestIssue            string `json:"pest_issue,omitempty"`
	StreetAddress        string `json:"street_address,omitempty"`
	City                 string `json:"city,omitempty"`
	State                string `json:"state,omitempty"`
	ZipCode              string `json:"zip_code,omitempty"`
	HomeSize             string `json:"home_size,omitempty"`
	YardSize             string `json:"yard_size,omitempty"`
	DecisionMaker        string `json:"decision_maker,omitempty"`
	PreferredServiceTime string `json:"preferred_service_time,omitempty"`

	ContactedOtherCompanies Signal `json:"-"`
	IsQualified             Signal `json:"-"`
	ActionRequired          Signal `json:"-"`

	Sentiment string `json:"sentiment,omitempty"`
	Summary   string `json:"summary,omitempty"`
}
