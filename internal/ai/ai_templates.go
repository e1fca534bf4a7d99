package ai

import (
	"fmt"
	"strings"

	"github.com/shanehull/racealert/internal/types"
)

const systemInstruction = `
# [INSTRUCTION]

You write short notification lines for thoroughbred racing partners.

You are given one row scraped from a stable's race listing. Cells are separated by " | ".
Rows usually contain a track, a horse name, a race number, a post position and a date, but
the column order is not fixed and cells may be missing.

Write ONE plain-English sentence of at most 160 characters describing the listing, for
example: "Velocity enters Del Mar. Race # 2, Post # 6."

# [RULES]

- Only use facts present in the row. Never invent a track, race, post, date or jockey.
- If the alert kind is "removed", say the horse is no longer listed.
- If the alert kind is "entry", say the horse has been entered.
- No emoji, no markdown, no quotes around the sentence.
`

func buildPrompt(a types.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Alert kind: %s\n", a.Kind))
	sb.WriteString(fmt.Sprintf("Tracked horse: %s\n", a.Name))
	sb.WriteString(fmt.Sprintf("Row: %s\n", a.Raw))
	return sb.String()
}
