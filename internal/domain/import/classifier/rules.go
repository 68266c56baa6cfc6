package classifier

const (
	TagSummary          Tag = "summary"
	TagTransfer         Tag = "transfer"
	TagCCPayment        Tag = "cc_payment"
	TagCreditCardSource Tag = "credit_card_source"
)

// DefaultRules is the keyword table for Israeli bank and card exports.
// Adding a bank or issuer means adding keywords here, nothing else.
var DefaultRules = []Rule{
	{
		// Totals and balance lines that close a statement section.
		Tag:  TagSummary,
		Mode: MatchContains,
		Keywords: []string{
			`סה"כ`, `סה''כ`, "סך הכל", "סך הכול", "יתרה לסוף", "יתרת סגירה",
			"total for", "total charges", "closing balance", "opening balance",
		},
	},
	{
		Tag:  TagSummary,
		Mode: MatchExact,
		Keywords: []string{
			"total", "subtotal", "grand total", "balance", "יתרה", "יתרה קודמת", "סיכום",
		},
	},
	{
		// Movements between the household's own accounts or deposits.
		Tag:  TagTransfer,
		Mode: MatchContains,
		Keywords: []string{
			"העברה", "העב'", "העב.", "פיקדון", "פקדון", "פדיון", "חיסכון",
			"transfer", "deposit to savings", "time deposit",
		},
	},
	{
		// A bank line paying a card bill; the card statement carries the real expenses.
		Tag:  TagCCPayment,
		Mode: MatchContains,
		Keywords: []string{
			"ישראכרט", "לאומי קארד", "מקס איט", "מקס פיננסים", "כ.א.ל", "כאל ויזה", "ויזה כאל",
			"אמריקן אקספרס", "דיינרס", "כרטיסי אשראי", "כרטיס אשראי", "חיוב כרטיס",
			"isracard", "leumi card", "max it", "cal-online", "american express", "diners",
		},
	},
	{
		// Applied to the source label the user picked at upload time.
		Tag:  TagCreditCardSource,
		Mode: MatchContains,
		Keywords: []string{
			"כרטיס", "אשראי", "ויזה", "מאסטרקארד", "ישראכרט", "אמריקן", "דיינרס", "מקס", "כאל",
			"credit", "card", "visa", "mastercard", "isracard", "amex", "diners", "max",
		},
	},
}
