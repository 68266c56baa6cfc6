package categorizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FACorreiaa/household-budget/internal/domain/categorization"
)

type promptCategory struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Type     string           `json:"type,omitempty"`
	Children []promptCategory `json:"children,omitempty"`
}

// TreeJSON renders the category hierarchy for a prompt.
func TreeJSON(tree categorization.Tree) string {
	roots := make([]promptCategory, 0, len(tree.Roots))
	for _, r := range tree.Roots {
		pc := promptCategory{ID: r.ID.String(), Name: r.Name, Type: string(r.Type)}
		for _, c := range r.Children {
			pc.Children = append(pc.Children, promptCategory{ID: c.ID.String(), Name: c.Name})
		}
		roots = append(roots, pc)
	}
	b, err := json.MarshalIndent(roots, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func writeExamples(sb *strings.Builder, examples []categorization.Mapping) {
	if len(examples) == 0 {
		return
	}
	sb.WriteString("Previous categorizations by this household (description -> category):\n")
	for _, m := range examples {
		fmt.Fprintf(sb, "- %q -> %s (%s)\n", m.Description, m.CategoryName, m.CategoryID)
	}
	sb.WriteString("\n")
}

// buildBatchPrompt asks the model to categorize a numbered list of rows.
// Rows carry their global index so results can be merged across batches.
func buildBatchPrompt(tree categorization.Tree, examples []categorization.Mapping, batch []Input) string {
	var sb strings.Builder

	sb.WriteString("You categorize household bank and credit card transactions. Descriptions are often in Hebrew.\n\n")
	sb.WriteString("Categories (JSON, each with sub-categories in \"children\"):\n")
	sb.WriteString(TreeJSON(tree))
	sb.WriteString("\n\n")

	writeExamples(&sb, examples)

	sb.WriteString("Transactions:\n")
	for _, in := range batch {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", in.Index, in.Type, in.Description)
	}

	sb.WriteString(`
Rules:
- Choose a category whose type matches the transaction type (INCOME or EXPENSE).
- Prefer the most specific sub-category. Put its id in "subCategoryId" and its parent's id in "categoryId".
- Use only ids from the category list. Use null when nothing fits.
- Set "isTransfer" to true for movements between the household's own accounts, deposits and credit card bill payments.
- "confidence" is "high", "low" or "unknown".
- Keep "index" exactly as numbered above.

Return ONLY a raw JSON array, one object per transaction:
[{"index": 1, "categoryId": "...", "subCategoryId": "...", "confidence": "high", "isTransfer": false, "reason": "short explanation"}]
`)
	return sb.String()
}
