package sniffer

import (
	"bufio"
	"bytes"
	"strings"
)

// DetectConfig describes the physical layout of a delimited statement file:
// which rune separates fields and how many lines of bank letterhead precede
// the real header row.
type DetectConfig struct {
	Delimiter rune
	HeaderRow int
}

var candidateDelimiters = []rune{';', '\t', ',', '|'}

// DetectLayout scans the first lines of a CSV export and picks the delimiter
// that splits them most consistently, then locates the header row by scoring
// lines against the known header vocabulary. Bank exports often open with
// account holder details and date ranges before the actual table starts.
func DetectLayout(data []byte) DetectConfig {
	lines := readLines(data, 20)
	cfg := DetectConfig{Delimiter: ','}
	if len(lines) == 0 {
		return cfg
	}
	cfg.Delimiter = detectDelimiter(lines)
	cfg.HeaderRow = findHeaderRow(lines, cfg.Delimiter)
	return cfg
}

func readLines(data []byte, max int) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && len(lines) < max {
		lines = append(lines, cleanLine(sc.Text()))
	}
	return lines
}

// cleanLine strips the UTF-8 BOM some bank portals prepend to exports.
func cleanLine(line string) string {
	return strings.TrimPrefix(line, "\ufeff")
}

func detectDelimiter(lines []string) rune {
	best := ','
	bestScore := 0
	for _, d := range candidateDelimiters {
		score := 0
		var prev int
		consistent := true
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			n := strings.Count(line, string(d))
			if i > 0 && prev > 0 && n != prev {
				consistent = false
			}
			prev = n
			score += n
		}
		if consistent && score > bestScore {
			best = d
			bestScore = score
		}
	}
	return best
}

// IsKnownHeader reports whether a cell value matches the header vocabulary
// used for column detection.
func IsKnownHeader(cell string) bool {
	h := strings.ToLower(strings.TrimSpace(cell))
	if h == "" {
		return false
	}
	return titleHeaders[h] || debitCreditHeaders[h] || noteHeaders[h] ||
		containsAny(h, dateSubstrings) || containsAny(h, amountSubstrings)
}

// findHeaderRow returns the index of the line that looks most like a column
// header: the more cells matching known header vocabulary, the better.
// Ties go to the earliest line; with no match at all the first line wins.
func findHeaderRow(lines []string, delimiter rune) int {
	bestIdx, bestScore := 0, 0
	for i, line := range lines {
		score := 0
		for _, cell := range strings.Split(line, string(delimiter)) {
			if IsKnownHeader(cell) {
				score++
			}
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}
