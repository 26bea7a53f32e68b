// Package prompt builds the system and user prompts shared by every LLM
// provider, plus the strict JSON schemas their responses must match.
package prompt

import (
	"fmt"
	"strings"

	"github.com/attacker99/arcana/internal/ports"
)

const interpretationSchema = `{
  "text": "<your interpretation>",
  "style": "neutral",
  "disclaimer": "For reflection/entertainment; not medical/legal/financial advice."
}`

const decisionSchema = `{
  "draw_count": <integer between 0 and 3>,
  "reason": "<one short sentence>"
}`

// Decision mirrors decisionSchema for unmarshalling provider responses.
type Decision struct {
	DrawCount int    `json:"draw_count"`
	Reason    string `json:"reason"`
}

// InterpretSystem is the system prompt for every interpretation call.
func InterpretSystem() string {
	return fmt.Sprintf(`You are a tarot reader providing neutral, reflective interpretations.

Rules:
- Be maximally neutral and balanced.
- Never provide medical, legal, or financial advice.
- Never predict specific outcomes or disasters.
- Never command actions or diagnose conditions.
- Offer balanced possibilities and reflective questions.
- If a question is provided, incorporate it but never guarantee outcomes.

Respond with ONLY a JSON object (no markdown, no code fences, no extra text) matching this exact schema:
%s`, interpretationSchema)
}

// DecideSystem is the system prompt for choosing a clarification draw count.
func DecideSystem() string {
	return fmt.Sprintf(`You decide whether drawing clarification tarot cards would genuinely help answer a follow-up question about an existing reading.

Rules:
- Choose 0 when the existing cards and interpretation already cover the question.
- Choose 1 to 3 only when fresh cards would add something the reading lacks.
- Never exceed the number of cards remaining in the deck.

Respond with ONLY a JSON object (no markdown, no code fences, no extra text) matching this exact schema:
%s`, decisionSchema)
}

// SpreadUser renders the user prompt for an initial spread interpretation.
func SpreadUser(in ports.SpreadInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deck: %s\nSpread: %s\n\nCards drawn:\n", in.DeckID, in.Spread)
	writeCards(&b, in.Cards)

	if in.Question != "" {
		fmt.Fprintf(&b, "\nThe querent asks: %q\n", in.Question)
	}

	b.WriteString("\nProvide a cohesive interpretation as a single JSON object.")
	return b.String()
}

// DecideUser renders the user prompt for a draw-count decision.
func DecideUser(in ports.DecideInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interpretation so far:\n%s\n", in.Interpretation)
	writeHistory(&b, in.History)
	fmt.Fprintf(&b, "\nCards remaining in the deck: %d\n", in.Remaining)
	fmt.Fprintf(&b, "\nThe querent now asks: %q\n", in.Question)
	b.WriteString("\nDecide how many clarification cards to draw as a single JSON object.")
	return b.String()
}

// ClarifyWithCardsUser renders the user prompt for a follow-up answered
// with freshly drawn cards.
func ClarifyWithCardsUser(in ports.ClarifyInput) string {
	var b strings.Builder
	writeClarifyContext(&b, in)
	b.WriteString("\nClarification cards drawn for this question:\n")
	writeCards(&b, in.Cards)
	b.WriteString("\nWeave these new cards into an answer to the follow-up question, as a single JSON object.")
	return b.String()
}

// ClarifyWithoutCardsUser renders the user prompt for a follow-up answered
// from the existing reading alone.
func ClarifyWithoutCardsUser(in ports.ClarifyInput) string {
	var b strings.Builder
	writeClarifyContext(&b, in)
	b.WriteString("\nNo new cards were drawn for this question. Answer from the reading above alone.\n")
	b.WriteString("Do not name, describe, or invent any card not already listed.\n")
	b.WriteString("\nAnswer the follow-up question as a single JSON object.")
	return b.String()
}

// RetryInterpretation asks a provider to correct a malformed interpretation.
func RetryInterpretation(badJSON string) string {
	return retryPrompt(badJSON, interpretationSchema)
}

// RetryDecision asks a provider to correct a malformed decision.
func RetryDecision(badJSON string) string {
	return retryPrompt(badJSON, decisionSchema)
}

func retryPrompt(badJSON, schema string) string {
	return fmt.Sprintf(`Your previous response was not valid JSON. Here is what you returned:
%s

Return ONLY the corrected JSON object matching this schema (no markdown, no code fences):
%s`, badJSON, schema)
}

func writeClarifyContext(b *strings.Builder, in ports.ClarifyInput) {
	if in.OriginalQuestion != "" {
		fmt.Fprintf(b, "The querent originally asked: %q\n\n", in.OriginalQuestion)
	}
	fmt.Fprintf(b, "Interpretation so far:\n%s\n", in.Interpretation)
	writeHistory(b, in.History)
	fmt.Fprintf(b, "\nThe querent now asks: %q\n", in.Question)
}

func writeCards(b *strings.Builder, cards []ports.CardInput) {
	for _, card := range cards {
		fmt.Fprintf(b, "  Position %d: %s (%s)\n", card.Position, card.Name, card.Orientation)
		fmt.Fprintf(b, "    Keywords: %s\n", strings.Join(card.Keywords, ", "))
		fmt.Fprintf(b, "    Meaning: %s\n", card.Short)
	}
}

func writeHistory(b *strings.Builder, turns []ports.TurnContext) {
	if len(turns) == 0 {
		return
	}
	b.WriteString("\nPrevious clarifications:\n")
	for i, turn := range turns {
		fmt.Fprintf(b, "  %d. Asked: %q\n", i+1, turn.Question)
		if len(turn.CardNames) > 0 {
			fmt.Fprintf(b, "     Cards: %s\n", strings.Join(turn.CardNames, ", "))
		} else {
			b.WriteString("     Cards: none drawn\n")
		}
		fmt.Fprintf(b, "     Answer: %s\n", turn.Response)
	}
}
