package nutrition

import (
	"fmt"
	"strings"
)

const missingValue = "N/A"

// FormatReport renders the reply sent back for a food photo. When nothing was
// extracted the model's own text (usually an apology) is sent instead.
func FormatReport(e Entry, modelText string) string {
	fields := Fields{Food: e.Food, Calories: e.Calories, Proteins: e.Proteins, Carbs: e.Carbs, Fat: e.Fat}
	if fields.Empty() {
		return strings.TrimSpace(modelText)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Food:** %s\n", orMissing(e.Food))
	fmt.Fprintf(&sb, "**Calories:** %s\n", orMissing(e.Calories))
	fmt.Fprintf(&sb, "**Proteins:** %s\n", orMissing(e.Proteins))
	fmt.Fprintf(&sb, "**Carbs:** %s\n", orMissing(e.Carbs))
	fmt.Fprintf(&sb, "**Fat:** %s\n", orMissing(e.Fat))
	fmt.Fprintf(&sb, "\n⏱️ _Analyzed in %.2f seconds_", e.TimeElapsed)
	return sb.String()
}

func orMissing(v string) string {
	if v == "" {
		return missingValue
	}
	return v
}
