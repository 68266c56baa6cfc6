// Package sniffer locates the header row of a statement grid and works out
// which columns hold the date, description and amount fields. It also probes
// the delimiter of CSV exports.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// HeaderScanRows bounds how far down the sheet the header may be.
const HeaderScanRows = 10

// MinHeaderCells is how many non-empty cells make a row a header candidate.
const MinHeaderCells = 3

var (
	ErrNoHeader         = errors.New("could not find data headers")
	ErrNoDescription    = errors.New("no description column")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// Column keyword sets, lowercased. Hebrew first since that is what the
// banks and card issuers export; English covers foreign-account exports.
var (
	secondaryDateKeywords = []string{
		"תאריך חיוב", "תאריך ערך", "מועד חיוב", "ת. חיוב", "ת.ערך", "ת. ערך",
		"billing date", "value date", "posting date", "charge date",
	}
	dateKeywords = []string{
		"תאריך עסקה", "תאריך רכישה", "תאריך", "date",
	}
	descriptionKeywords = []string{
		"שם בית העסק", "שם בית עסק", "בית עסק", "תיאור", "תאור", "פרטים", "הפעולה", "אסמכתא ותיאור",
		"description", "merchant", "details", "payee", "narrative",
	}
	amountKeywords = []string{
		"סכום חיוב", "סכום העסקה", "סכום עסקה", "סכום", "amount", "sum",
	}
	debitKeywords = []string{
		"חובה", "בחובה", "debit", "withdrawal",
	}
	creditKeywords = []string{
		"זכות", "בזכות", "credit", "deposit",
	}
)

// Columns maps roles to 0-based column indices; -1 means not found.
type Columns struct {
	Date          int
	SecondaryDate int
	Description   int
	Amount        int
	Debit         int
	Credit        int
}

// IsDoubleEntry is true when separate debit and credit columns exist.
func (c Columns) IsDoubleEntry() bool {
	return c.Debit >= 0 && c.Credit >= 0
}

// HasAmount reports whether any amount representation was found.
func (c Columns) HasAmount() bool {
	return c.Amount >= 0 || c.IsDoubleEntry()
}

// Layout is the outcome of sniffing a grid.
type Layout struct {
	HeaderRow   int // 0-based index into the grid
	Headers     []string
	Columns     Columns
	Fingerprint string
}

// Detect finds the header row and column roles of a grid.
func Detect(grid [][]string) (*Layout, error) {
	headerRow, ok := FindHeaderRow(grid)
	if !ok {
		return nil, ErrNoHeader
	}

	headers := make([]string, len(grid[headerRow]))
	for i, h := range grid[headerRow] {
		headers[i] = strings.TrimSpace(h)
	}

	cols := DetectColumns(headers)
	layout := &Layout{
		HeaderRow:   headerRow,
		Headers:     headers,
		Columns:     cols,
		Fingerprint: generateFingerprint(headers),
	}
	if cols.Description < 0 {
		return layout, ErrNoDescription
	}
	return layout, nil
}

// FindHeaderRow returns the first row within HeaderScanRows that has at
// least MinHeaderCells non-empty cells.
func FindHeaderRow(grid [][]string) (int, bool) {
	for i, row := range grid {
		if i >= HeaderScanRows {
			break
		}
		nonEmpty := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				nonEmpty++
			}
		}
		if nonEmpty >= MinHeaderCells {
			return i, true
		}
	}
	return 0, false
}

// DetectColumns assigns roles by keyword over the lowercased header text.
// The first matching column wins each role. A header naming a billing or
// value date is only ever the secondary date.
func DetectColumns(headers []string) Columns {
	cols := Columns{
		Date:          -1,
		SecondaryDate: -1,
		Description:   -1,
		Amount:        -1,
		Debit:         -1,
		Credit:        -1,
	}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}

		if containsAny(h, secondaryDateKeywords) {
			if cols.SecondaryDate < 0 {
				cols.SecondaryDate = i
			}
		} else if cols.Date < 0 && containsAny(h, dateKeywords) {
			cols.Date = i
		}
		if cols.Description < 0 && containsAny(h, descriptionKeywords) {
			cols.Description = i
		}
		if cols.Amount < 0 && containsAny(h, amountKeywords) {
			cols.Amount = i
		}
		if cols.Debit < 0 && containsAny(h, debitKeywords) {
			cols.Debit = i
		}
		if cols.Credit < 0 && containsAny(h, creditKeywords) {
			cols.Credit = i
		}
	}

	return cols
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// DetectDelimiter picks the CSV delimiter from the first lines of a file:
// the candidate that splits the most lines into at least MinHeaderCells
// fields wins, ties going to the earlier candidate.
func DetectDelimiter(text string) (rune, error) {
	lines := strings.Split(text, "\n")
	if len(lines) > HeaderScanRows*2 {
		lines = lines[:HeaderScanRows*2]
	}

	candidates := []rune{',', ';', '\t', '|'}
	best := rune(0)
	bestScore := 0
	for _, d := range candidates {
		score := 0
		for _, line := range lines {
			if strings.Count(line, string(d))+1 >= MinHeaderCells {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	if best == 0 {
		// single-column or two-column files still parse with a comma
		if strings.TrimSpace(text) == "" {
			return 0, ErrInvalidDelimiter
		}
		return ',', nil
	}
	return best, nil
}

// generateFingerprint creates a stable hash of the header names so the same
// export layout can be recognised across uploads.
func generateFingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
