// Package classifier holds the cheap keyword heuristics that run before AI
// categorization: summary rows, transfers, card bill payments and card
// statement sources.
package classifier

// Classifier answers keyword questions about descriptions and source labels.
type Classifier struct {
	engine *Engine
}

// New builds a classifier over DefaultRules plus any extra rules.
func New(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	rules = append(rules, DefaultRules...)
	rules = append(rules, extra...)
	return &Classifier{engine: NewEngine(rules)}
}

// IsSummaryRow reports whether a description is a totals/balance line.
func (c *Classifier) IsSummaryRow(description string) bool {
	return c.engine.Match(description).Has(TagSummary)
}

// IsTransferDescription reports whether a description looks like a movement
// between the household's own accounts.
func (c *Classifier) IsTransferDescription(description string) bool {
	return c.engine.Match(description).Has(TagTransfer)
}

// IsCCPayment reports whether a bank line is the payment of a card bill.
func (c *Classifier) IsCCPayment(description string) bool {
	return c.engine.Match(description).Has(TagCCPayment)
}

// IsCreditCardSource reports whether the upload's source label names a
// credit card, which flips the sign convention of single-amount files.
func (c *Classifier) IsCreditCardSource(sourceLabel string) bool {
	return c.engine.Match(sourceLabel).Has(TagCreditCardSource)
}

// IsTransferSignal is true when either the transfer or card payment rules
// fire for a description.
func (c *Classifier) IsTransferSignal(description string) bool {
	tags := c.engine.Match(description)
	return tags.Has(TagTransfer) || tags.Has(TagCCPayment)
}
