// Package timestamp stamps report sections and renders durations.
package timestamp

import (
	"fmt"
	"time"
)

const (
	timeLayout = "15:04:05"
	dateLayout = "02/01/2006"
	bootLayout = "2006-01-02 15:04:05"
)

// Clock produces the time strings written into report sections.
type Clock struct {
	now func() time.Time
}

// New returns a Clock reading the wall clock.
func New() *Clock {
	return &Clock{now: time.Now}
}

// NewWithFunc returns a Clock driven by now, for deterministic output.
func NewWithFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	return c.now()
}

// CurrentTime returns the current time as HH:MM:SS.
func (c *Clock) CurrentTime() string {
	return c.now().Format(timeLayout)
}

// CurrentDate returns the current date as DD/MM/YYYY.
func (c *Clock) CurrentDate() string {
	return c.now().Format(dateLayout)
}

// GenerateReport returns the "Generated Time & Date" stamp.
func (c *Clock) GenerateReport() string {
	now := c.now()
	return now.Format(timeLayout) + " | " + now.Format(dateLayout)
}

// ConvertTime renders a number of seconds as H:MM:SS. Fractions are
// truncated and negative input renders as 0:00:00.
func ConvertTime(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}

	minutes, secs := total/60, total%60
	hours, minutes := minutes/60, minutes%60

	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
}

// FormatEpoch renders Unix seconds as local YYYY-MM-DD HH:MM:SS.
func FormatEpoch(seconds uint64) string {
	return time.Unix(int64(seconds), 0).Format(bootLayout)
}
