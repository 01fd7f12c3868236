package report

import (
	"time"

	"github.com/rickar/cal/v2"
)

const dueAfterDays = 2

// workweek is Monday to Friday with no holidays.
var workweek = cal.NewBusinessCalendar()

// DueDate returns the ticket due date, two days after now, as YYYY-MM-DD.
// With businessDays set, weekends are skipped.
func DueDate(now time.Time, businessDays bool) string {
	if businessDays {
		return workweek.WorkdaysFrom(now, dueAfterDays).Format(time.DateOnly)
	}
	return now.AddDate(0, 0, dueAfterDays).Format(time.DateOnly)
}
