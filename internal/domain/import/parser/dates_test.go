package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{"slash four digit year", "15/01/2024", day(2024, time.January, 15), true},
		{"dash two digit year", "5-3-24", day(2024, time.March, 5), true},
		{"dot separator", "31.12.2023", day(2023, time.December, 31), true},
		{"trailing time", "15/01/2024 10:32", day(2024, time.January, 15), true},
		{"iso", "2024-02-29", day(2024, time.February, 29), true},
		{"iso with time", "2024-02-29T13:00:00Z", day(2024, time.February, 29), true},
		{"excel serial", "45306", day(2024, time.January, 15), true},
		{"excel serial with fraction", "45306.75", day(2024, time.January, 15), true},
		{"serial zero", "0", time.Time{}, false},
		{"serial too large", "2958466", time.Time{}, false},
		{"impossible day", "31/02/2024", time.Time{}, false},
		{"month out of range", "01/13/2024", time.Time{}, false},
		{"text", "yesterday", time.Time{}, false},
		{"empty", "  ", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractInstallment(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"תשלום 3 מתוך 12 - סופרמרקט", "תשלום 3/12"},
		{"רהיטים תשלום 2 מ-6", "תשלום 2/6"},
		{"רהיטים תשלום 2 מ 6", "תשלום 2/6"},
		{"מקרר 4 מתוך 10 תשלומים", "תשלום 4/10"},
		{"סופר פארם", ""},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractInstallment(tt.description))
		})
	}
}
