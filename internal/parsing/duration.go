package parsing

import (
	"math"
	"regexp"
	"strconv"

	"github.com/jonathan/izzy/internal/types"
)

var (
	yearsPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`)
	monthsPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:months?|mos?)\b`)
)

// ParseDuration reads free-text durations such as "2 years 3 months",
// "1.5 yrs" or "8 months". Text without a recognizable amount yields zero.
func ParseDuration(text string) types.Duration {
	var d types.Duration

	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		years, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			whole := math.Floor(years)
			d.Years = int(whole)
			d.Months = int(math.Round((years - whole) * 12))
		}
	}
	if m := monthsPattern.FindStringSubmatch(text); m != nil {
		if months, err := strconv.Atoi(m[1]); err == nil {
			d.Months += months
		}
	}

	return normalizeDuration(d)
}

// normalizeDuration carries whole years out of the month count.
func normalizeDuration(d types.Duration) types.Duration {
	if d.Years < 0 {
		d.Years = 0
	}
	if d.Months < 0 {
		d.Months = 0
	}
	d.Years += d.Months / 12
	d.Months %= 12
	return d
}
