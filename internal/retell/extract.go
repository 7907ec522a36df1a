package retell

import (
	"regexp"
	"strings"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
)

// Transcript fallback patterns, used only when neither the analysis block
// nor dynamic variables produced a value.
var (
	pestPattern     = regexp.MustCompile(`(?i)(ant|roach|cockroach|spider|termite|rodent|rat|mouse|wasp|bee|fly|mosquito|tick|flea|bed bug|pest|insect|bug).{0,50}`)
	// The gap before the number must not eat leading digits, or
	// "home is about 1800" captures only the trailing "0".
	homeSizePattern = regexp.MustCompile(`(?i)home[^\d]{0,20}(\d+).{0,10}(sq|square|feet|ft)`)
	yardSizePattern = regexp.MustCompile(`(?i)yard[^\d]{0,20}(\d+).{0,10}(sq|square|feet|ft|acre)`)
	addressPattern  = regexp.MustCompile(`(?i)(\d+\s+[A-Za-z\s]+(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|way|blvd|boulevard|circle|cir|court|ct|place|pl))`)
	morningPattern  = regexp.MustCompile(`(?i)(morning|am|a\.m\.|before noon)`)
	eveningPattern  = regexp.MustCompile(`(?i)(afternoon|evening|pm|p\.m\.|after noon)`)
)

const maxPestIssueLen = 255

// Extract merges structured call data from the analysis block, the dynamic
// variables, and transcript pattern matching, in that order of precedence.
// It is pure: the same inputs always yield the same output.
func Extract(call *Call) *domain.ExtractedCallData {
	data := &domain.ExtractedCallData{Sentiment: "neutral"}
	if call == nil {
		return data
	}

	var custom map[string]interface{}
	if call.CallAnalysis != nil {
		custom = call.CallAnalysis.CustomAnalysisData

		if s := strings.TrimSpace(call.CallAnalysis.UserSentiment); s != "" {
			data.Sentiment = strings.ToLower(s)
		}
		data.Summary = strings.TrimSpace(call.CallAnalysis.CallSummary)
	}
	vars := call.RetellLLMDynamicVariables

	data.FirstName = firstString(custom, vars, "customer_first_name", "first_name")
	data.LastName = firstString(custom, vars, "customer_last_name", "last_name")
	data.Email = firstString(custom, vars, "customer_email", "email")

	data.PestIssue = firstString(custom, vars, "pest_issue")
	data.StreetAddress = firstString(custom, vars, "street_address", "customer_street_address")
	data.City = firstString(custom, vars, "customer_city", "city")
	data.State = firstString(custom, vars, "customer_state", "state")
	data.ZipCode = firstString(custom, vars, "customer_zip", "zip_code")
	data.HomeSize = firstString(custom, vars, "home_size")
	data.YardSize = firstString(custom, vars, "yard_size")
	data.DecisionMaker = firstString(custom, vars, "decision_maker")
	data.PreferredServiceTime = normalizeServiceTime(firstString(custom, vars, "preferred_service_time"))

	data.ContactedOtherCompanies = firstSignal(custom, vars, "contacted_other_companies")
	data.IsQualified = firstSignal(custom, vars, "is_qualified")
	data.ActionRequired = firstSignal(custom, vars, "action_required")

	applyTranscriptFallback(data, call.Transcript)

	return data
}

// CallSuccessful returns the analysis call_successful flag as a Signal.
func CallSuccessful(call *Call) domain.Signal {
	if call == nil || call.CallAnalysis == nil || call.CallAnalysis.CallSuccessful == nil {
		return domain.SignalUnknown
	}
	return domain.SignalFromBool(*call.CallAnalysis.CallSuccessful)
}

// applyTranscriptFallback fills still-empty fields from transcript patterns.
func applyTranscriptFallback(data *domain.ExtractedCallData, transcript string) {
	if transcript == "" {
		return
	}

	if data.PestIssue == "" {
		if matches := pestPattern.FindAllString(transcript, -1); len(matches) > 0 {
			issue := strings.Join(matches, ", ")
			if len(issue) > maxPestIssueLen {
				issue = issue[:maxPestIssueLen]
			}
			data.PestIssue = issue
		}
	}

	if data.HomeSize == "" {
		if m := homeSizePattern.FindStringSubmatch(transcript); m != nil {
			data.HomeSize = m[1]
		}
	}

	if data.YardSize == "" {
		if m := yardSizePattern.FindStringSubmatch(transcript); m != nil {
			data.YardSize = m[1]
		}
	}

	if data.StreetAddress == "" {
		if m := addressPattern.FindStringSubmatch(transcript); m != nil {
			data.StreetAddress = strings.TrimSpace(m[1])
		}
	}

	if data.PreferredServiceTime == "" {
		switch {
		case morningPattern.MatchString(transcript):
			data.PreferredServiceTime = domain.ServiceTimeAM
		case eveningPattern.MatchString(transcript):
			data.PreferredServiceTime = domain.ServiceTimePM
		}
	}
}

// normalizeServiceTime restricts the extracted value to the accepted set.
func normalizeServiceTime(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "am", "morning":
		return domain.ServiceTimeAM
	case "pm", "afternoon", "evening":
		return domain.ServiceTimePM
	case "anytime":
		return domain.ServiceTimeAnytime
	}
	return ""
}

// firstString returns the first non-empty string value for any of the keys,
// checking the analysis custom data before the dynamic variables.
func firstString(custom, vars map[string]interface{}, keys ...string) string {
	for _, source := range []map[string]interface{}{custom, vars} {
		if source == nil {
			continue
		}
		for _, key := range keys {
			if s, ok := source[key].(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// firstSignal returns the first boolean-ish value for the key as a Signal.
// Retell sends these as real booleans or as "true"/"false" strings depending
// on the agent configuration.
func firstSignal(custom, vars map[string]interface{}, key string) domain.Signal {
	for _, source := range []map[string]interface{}{custom, vars} {
		if source == nil {
			continue
		}
		v, ok := source[key]
		if !ok || v == nil {
			continue
		}
		switch value := v.(type) {
		case bool:
			return domain.SignalFromBool(value)
		case string:
			switch strings.ToLower(strings.TrimSpace(value)) {
			case "true":
				return domain.SignalTrue
			case "false":
				return domain.SignalFalse
			}
		}
	}
	return domain.SignalUnknown
}
