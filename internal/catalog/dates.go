package catalog

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDate accepts the date spellings the metadata files and CLI use:
// ISO YYYY-MM-DD, YYYYDOY (7 digits), and YYDOY (5 digits, pivot at 80).
// The result is normalised to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, nil
	}

	if len(s) == 7 || len(s) == 5 {
		if _, err := strconv.Atoi(s); err == nil {
			return parseDOY(s)
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD, YYYYDOY, or YYDOY)", s)
}

func parseDOY(s string) (time.Time, error) {
	var year, doy int
	switch len(s) {
	case 7:
		year, _ = strconv.Atoi(s[:4])
		doy, _ = strconv.Atoi(s[4:])
	case 5:
		yy, _ := strconv.Atoi(s[:2])
		doy, _ = strconv.Atoi(s[2:])
		if yy >= 80 {
			year = 1900 + yy
		} else {
			year = 2000 + yy
		}
	}
	if doy < 1 || doy > 366 {
		return time.Time{}, fmt.Errorf("invalid day of year in %q", s)
	}
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1), nil
}
