package normalizer

import (
	"strconv"
	"strings"
	"time"
)

// excelEpochOffsetDays is the day count between the Excel 1900 date system
// epoch and the Unix epoch (1970-01-01).
const excelEpochOffsetDays = 25569

// dateFormats are tried in order. Day-first layouts come before month-first
// because Indian bank statements, the primary source, write dd/mm/yyyy.
var dateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"02-01-06",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"02-Jan-2006",
	"02 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseFlexibleDate interprets a statement date cell. It accepts Excel serial
// numbers (how XLSX stores dates internally) and the textual formats banks
// commonly export. Cells that resist every format fall back to the supplied
// default so that one ambiguous date does not sink an import.
func ParseFlexibleDate(raw string, fallback time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}

	// Excel serial dates. The range guard keeps plain integers like years
	// or reference numbers from being misread as serials; 20000..80000
	// spans roughly 1954..2119.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			secs := (serial - excelEpochOffsetDays) * 86400
			return time.Unix(int64(secs), 0).UTC()
		}
		return fallback
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
