package trip

import "strings"

// Requirements are the travel slots extracted from the conversation.
// Destination and TravelDate are critical; budget and preference are not.
type Requirements struct {
	Destination string `json:"destination"`
	TravelDate  string `json:"travelDate"`
	Budget      string `json:"budget,omitempty"`
	Preference  string `json:"preference,omitempty"`
}

// MissingCriticalInfo reports whether a critical slot is still blank.
func (r *Requirements) MissingCriticalInfo() bool {
	if r == nil {
		return true
	}
	return strings.TrimSpace(r.Destination) == "" || strings.TrimSpace(r.TravelDate) == ""
}

// merge fills blank slots from prior with newly extracted values winning.
func (r Requirements) mergeOver(prior *Requirements) *Requirements {
	if prior == nil {
		return &r
	}
	out := *prior
	if strings.TrimSpace(r.Destination) != "" {
		out.Destination = r.Destination
	}
	if strings.TrimSpace(r.TravelDate) != "" {
		out.TravelDate = r.TravelDate
	}
	if strings.TrimSpace(r.Budget) != "" {
		out.Budget = r.Budget
	}
	if strings.TrimSpace(r.Preference) != "" {
		out.Preference = r.Preference
	}
	return &out
}
