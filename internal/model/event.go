package model

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// KindHoliday is the kind label given to every public holiday.
const KindHoliday = "祝日"

// Event is a single display record, regardless of which view it came from.
type Event struct {
	Name        string      `json:"name"`
	DateText    string      `json:"date_text"`
	Date        *civil.Date `json:"date,omitempty"`
	Kind        string      `json:"kind"`
	Description string      `json:"description"`
}

// FormatDate renders a date the way the data source writes recurring dates.
func FormatDate(d civil.Date) string {
	return fmt.Sprintf("%d月%d日", int(d.Month), d.Day)
}
