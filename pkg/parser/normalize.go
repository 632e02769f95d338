// Package parser reads match configuration and lineups from Excel workbooks
package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9]+`)
	leadingDigits   = regexp.MustCompile(`^\s*(\d+)`)
	clockRegex      = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	dotClockRegex   = regexp.MustCompile(`^(\d{1,2})\.(\d{2})$`)
	hourRegex       = regexp.MustCompile(`^(\d{1,2})\s*(am|pm|a\.m\.|p\.m\.)?$`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripDiacritics removes combining marks, so "Družstvo" becomes "Druzstvo"
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases s, strips diacritics and drops everything that is not a-z or 0-9.
// It is used to compare header labels and names loosely.
func Normalize(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	return nonAlnumRegex.ReplaceAllString(s, "")
}

// LeadingDigits returns the leading run of digits in s, ignoring leading spaces.
// "1234 (A tým)" yields "1234"; "abc" yields "".
func LeadingDigits(s string) string {
	m := leadingDigits.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// MapWO translates walkover markers to the codes the registry expects.
// 3:0 walkovers become "101", 0:3 walkovers "-101"; other values are only trimmed.
func MapWO(val string) string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return ""
	}
	s := strings.ToUpper(whitespaceRegex.ReplaceAllString(trimmed, ""))
	switch s {
	case "WO3:0", "3:0WO":
		return "101"
	case "WO0:3", "0:3WO":
		return "-101"
	}
	return trimmed
}

// AsTimeText converts a start/end cell to "HH:MM".
// Accepted inputs are Excel day fractions (0.5 is noon), time.Time values,
// whole hours and the strings "19:00", "19:00:00", "19", "7 pm".
// The second result is false when v is empty or not a time.
func AsTimeText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case time.Time:
		return t.Format("15:04"), true
	case int:
		return formatClock(t, 0)
	case float64:
		return fromFloat(t)
	case string:
		return parseTimeString(t)
	}
	return "", false
}

func parseTimeString(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if m := clockRegex.FindStringSubmatch(s); m != nil {
		return clockFromMatch(m)
	}
	f, floatErr := strconv.ParseFloat(s, 64)
	// Raw time cells are day fractions like "0.75", which would otherwise read as 00:75
	if floatErr == nil && f < 1 {
		return fromFloat(f)
	}
	if m := dotClockRegex.FindStringSubmatch(s); m != nil {
		return clockFromMatch(m)
	}
	if m := hourRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		switch strings.ReplaceAll(m[2], ".", "") {
		case "pm":
			if h > 12 {
				return "", false
			}
			if h < 12 {
				h += 12
			}
		case "am":
			if h > 12 {
				return "", false
			}
			if h == 12 {
				h = 0
			}
		}
		return formatClock(h, 0)
	}
	if floatErr == nil {
		return fromFloat(f)
	}
	return "", false
}

func clockFromMatch(m []string) (string, bool) {
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return formatClock(h, mm)
}

// fromFloat reads the time part of an Excel serial value
func fromFloat(f float64) (string, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f >= 1 && f == math.Trunc(f) && f < 24 {
		return formatClock(int(f), 0)
	}
	_, frac := math.Modf(f)
	if f >= 24 && frac == 0 {
		// a date with no time of day
		return "", false
	}
	minutes := int(math.Round(frac*24*60)) % (24 * 60)
	return formatClock(minutes/60, minutes%60)
}

func formatClock(h, m int) (string, bool) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

// SplitClock splits "HH:MM" into hour and minute without leading zeros,
// which is how the form's select options are valued.
func SplitClock(hhmm string) (hour, minute string, ok bool) {
	m := clockRegex.FindStringSubmatch(strings.TrimSpace(hhmm))
	if m == nil {
		return "", "", false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return "", "", false
	}
	return strconv.Itoa(h), strconv.Itoa(mm), true
}
