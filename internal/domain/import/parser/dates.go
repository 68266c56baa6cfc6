package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxExcelSerial = 2958466 // 9999-12-31

var (
	excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

	dmyPattern = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)
	isoPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
)

// ParseDate accepts Excel serial numbers, DD/MM/YYYY with '/', '-' or '.'
// separators and a 2 or 4 digit year, and a leading ISO YYYY-MM-DD. The
// result is midnight UTC.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial >= maxExcelSerial {
			return time.Time{}, false
		}
		return excelEpoch.AddDate(0, 0, int(math.Floor(serial))), true
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return buildDate(year, m[2], m[1])
	}

	return time.Time{}, false
}

func buildDate(y, m, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// 31/02 would roll over into March
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
