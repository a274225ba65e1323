package trip

import (
	"fmt"
	"strings"
)

// Itinerary is the structured travel plan produced by the plan generator.
type Itinerary struct {
	Title       string      `json:"title"`
	Days        []DailyPlan `json:"days"`
	TotalBudget float64     `json:"totalBudget"`
}

// DailyPlan is one day of the itinerary.
type DailyPlan struct {
	Day        int      `json:"day"`
	City       string   `json:"city"`
	Activities []string `json:"activities"`
	Note       string   `json:"note,omitempty"`
}

// Validate enforces the structural rules: day numbers form the contiguous
// sequence 1..N matching list order and the budget estimate is non-negative.
func (it *Itinerary) Validate() error {
	if it.TotalBudget < 0 {
		return fmt.Errorf("itinerary total budget is negative: %v", it.TotalBudget)
	}
	for i, day := range it.Days {
		if day.Day != i+1 {
			return fmt.Errorf("itinerary day %d out of sequence at position %d", day.Day, i)
		}
	}
	return nil
}

// Summary renders the itinerary as a short text block for the transcript.
func (it *Itinerary) Summary() string {
	var b strings.Builder
	b.WriteString(it.Title)
	for _, day := range it.Days {
		fmt.Fprintf(&b, "\n第%d天 %s：%s", day.Day, day.City, strings.Join(day.Activities, "、"))
		if day.Note != "" {
			fmt.Fprintf(&b, "（%s）", day.Note)
		}
	}
	fmt.Fprintf(&b, "\n预估总预算：%.0f元", it.TotalBudget)
	return b.String()
}
