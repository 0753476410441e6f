package suggest

import (
	"fmt"
	"strings"
)

// BuildPrompt composes the categorization prompt for a single transaction.
// The user's existing category names are included to bias the model toward
// reusing them instead of inventing near-duplicates.
func BuildPrompt(description string, amountMinorUnits int64, kind string, categories []string) string {
	var b strings.Builder

	b.WriteString("You are a personal-finance categorization assistant.\n\n")
	b.WriteString("Task: assign a single spending category to the transaction below.\n\n")
	b.WriteString("Transaction:\n")
	fmt.Fprintf(&b, "- description: %q\n", description)
	fmt.Fprintf(&b, "- amount: %.2f\n", float64(amountMinorUnits)/100)
	fmt.Fprintf(&b, "- kind: %s\n\n", kind)

	if len(categories) > 0 {
		b.WriteString("The user already has these categories. Prefer one of them when it fits:\n")
		for _, name := range categories {
			b.WriteString("- " + name + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("1. Output STRICT JSON only (no comments, no extra text).\n")
	b.WriteString("2. Output a single JSON object with exactly these fields:\n")
	b.WriteString("   - \"category\": string, a short category name\n")
	b.WriteString("   - \"confidence\": number between 0 and 1\n")
	b.WriteString("3. Only invent a new category name when none of the existing ones fit.\n")
	b.WriteString("4. Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}
