package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_IsSummaryRow(t *testing.T) {
	c := New()

	tests := []struct {
		description string
		want        bool
	}{
		{"סה״כ", true},
		{`סה"כ לחיוב בכרטיס`, true},
		{"Total", true},
		{"TOTAL:", true},
		{"סך הכל חיובים", true},
		{"יתרה", true},
		{"TOTAL ENERGIES STATION", false},
		{"שופרסל דיל", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsSummaryRow(tt.description))
		})
	}
}

func TestClassifier_Transfers(t *testing.T) {
	c := New()

	tests := []struct {
		name        string
		description string
		transfer    bool
		ccPayment   bool
	}{
		{"own account transfer", "העברה בין חשבונות", true, false},
		{"time deposit", "הפקדה לפיקדון", true, false},
		{"deposit redemption", "פדיון פקדון", true, false},
		{"english transfer", "Transfer to savings", true, false},
		{"isracard bill", "ישראכרט חיוב חודשי", false, true},
		{"max bill", "MAX IT FINANCE", false, true},
		{"regular purchase", "רמי לוי שיווק השקמה", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transfer, c.IsTransferDescription(tt.description))
			assert.Equal(t, tt.ccPayment, c.IsCCPayment(tt.description))
			assert.Equal(t, tt.transfer || tt.ccPayment, c.IsTransferSignal(tt.description))
		})
	}
}

func TestClassifier_IsCreditCardSource(t *testing.T) {
	c := New()

	assert.True(t, c.IsCreditCardSource("ויזה כאל"))
	assert.True(t, c.IsCreditCardSource("Isracard Gold"))
	assert.True(t, c.IsCreditCardSource("כרטיס אשראי - מקס"))
	assert.False(t, c.IsCreditCardSource("בנק הפועלים"))
	assert.False(t, c.IsCreditCardSource("Discount Bank"))
}

func TestClassifier_ExtraRules(t *testing.T) {
	c := New(Rule{Tag: TagTransfer, Keywords: []string{"paybox"}})
	assert.True(t, c.IsTransferDescription("PAYBOX to Dana"))
}
