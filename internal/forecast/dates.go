package forecast

import "time"

const (
	DateLayout     = "2006-01-02"
	IntradayLayout = "2006-01-02 15:04"
)

// FutureBusinessDays walks forward from last one calendar day at a time,
// skipping Saturdays and Sundays, and returns the next n weekdays.
func FutureBusinessDays(last time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := last
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}
