package parser

import (
	"fmt"
	"regexp"
)

// Installment phrasings used by Israeli card issuers, in priority order.
// Each captures the payment number and the total.
var installmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`תשלום\s*(\d+)\s*מתוך\s*(\d+)`),
	regexp.MustCompile(`תשלום\s*(\d+)\s*מ(?:-|\s)\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*מתוך\s*(\d+)\s*תשלומים`),
}

// ExtractInstallment returns "תשלום k/n" for descriptions that mention an
// installment, or "" when none does.
func ExtractInstallment(description string) string {
	for _, re := range installmentPatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			return fmt.Sprintf("תשלום %s/%s", m[1], m[2])
		}
	}
	return ""
}
