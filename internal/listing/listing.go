package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = "You write concise, accurate textbook listings and return strict JSON " +
	"with no prose. Base every detail on the provided Title and Edition. Prefer trustworthy " +
	"cover images that match the exact title/edition. If unsure about an image or ISBN, " +
	"leave them empty."

type Input struct {
	Title     string
	Edition   string
	Price     float64
	Condition string
	Authors   string
}

// Listing is the JSON shape the model is asked to return.
type Listing struct {
	Headline         string   `json:"headline"`
	ShortDescription string   `json:"shortDescription"`
	Description      string   `json:"description"`
	Image            string   `json:"image"`
	ISBN             string   `json:"isbn"`
	Authors          string   `json:"authors"`
	Specs            []string `json:"specs"`
}

func BuildPrompt(in Input) string {
	condition := in.Condition
	if condition == "" {
		condition = "Not provided"
	}
	authors := in.Authors
	if authors == "" {
		authors = "Not provided (infer likely authors if confident)"
	}

	return fmt.Sprintf(`Generate a concise listing for a used college textbook.
Return a single JSON object with keys:
- headline: catchy but honest, max 80 chars
- shortDescription: 2 sentences max, under 160 chars
- description: 3-5 sentences, under 450 chars, mention edition/condition/authors, include a likely course/subject this book supports and include the ISBN if known.
- image: direct https URL to a front cover photo of THIS title/edition (avoid placeholders; if unsure, leave empty string).
- isbn: 13-digit ISBN string if confident, else empty string
- specs: array of short bullet-style strings (e.g., "Edition: 3rd", "Condition: Gently used", "Authors: ...")

Input:
- Title: %s
- Edition: %s
- Price: $%.2f
- Condition: %s
- Authors: %s

Prefer an Amazon product cover URL or Google Books cover if available.
Return ONLY the JSON object. Do not use markdown code fences. If you are not confident in the cover, set "image" to "" and if you are not confident in ISBN, set "isbn" to "".`,
		in.Title, in.Edition, in.Price, condition, authors)
}

// Generate asks the model for a listing and decodes its JSON reply.
func Generate(ctx context.Context, llm llms.Model, in Input) (Listing, error) {
	var out Listing
	if llm == nil {
		return out, fmt.Errorf("no model configured")
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(in)),
	}

	completion, err := llm.GenerateContent(ctx, content,
		llms.WithTemperature(0.4),
		llms.WithMaxTokens(400),
	)
	if err != nil {
		return out, fmt.Errorf("llm call: %w", err)
	}

	var response strings.Builder
	for _, choice := range completion.Choices {
		if choice == nil {
			continue
		}
		response.WriteString(choice.Content)
	}
	raw := response.String()
	if raw == "" {
		return out, fmt.Errorf("empty response from model")
	}

	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return out, fmt.Errorf("parse model response: %w", err)
	}
	return out, nil
}

// Fallback builds a deterministic listing when the model is down.
func Fallback(in Input) Listing {
	condition := in.Condition
	if condition == "" {
		condition = "Used"
	}
	authors := in.Authors
	if authors == "" {
		authors = "N/A"
	}

	return Listing{
		Headline:         fmt.Sprintf("%s (%s)", in.Title, in.Edition),
		ShortDescription: fmt.Sprintf("%s %s edition textbook in %s condition.", in.Title, in.Edition, strings.ToLower(condition)),
		Description: fmt.Sprintf("Used textbook titled %s (%s). Condition: %s. Authors: %s. Priced at $%.2f.",
			in.Title, in.Edition, condition, authors, in.Price),
		Specs: []string{},
	}
}

var (
	fencedJSON  = regexp.MustCompile("(?i)```(?:json)?\\s*([\\s\\S]*?)```")
	firstObject = regexp.MustCompile(`\{[\s\S]*\}`)
	isbnChars   = regexp.MustCompile(`[^0-9Xx]`)
	endsClean   = regexp.MustCompile(`[.?!]\s*$`)
)

// ExtractJSON tolerates fenced code blocks and surrounding prose.
func ExtractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); len(m) > 1 && m[1] != "" {
		return m[1]
	}
	if m := firstObject.FindString(raw); m != "" {
		return m
	}
	return strings.TrimSpace(raw)
}

// NormalizeISBN keeps only ISBN-10/13 shaped values.
func NormalizeISBN(value string) string {
	digits := isbnChars.ReplaceAllString(value, "")
	if len(digits) == 10 || len(digits) == 13 {
		return strings.ToUpper(digits)
	}
	return ""
}

// EnsureCourseHint appends ISBN and course-hint sentences when the model
// left them out of the description.
func EnsureCourseHint(description, title, isbn string) string {
	text := strings.TrimSpace(description)
	if isbn != "" && !strings.Contains(strings.ToLower(text), "isbn") {
		if text != "" && !endsClean.MatchString(text) {
			text += "."
		}
		text = strings.TrimSpace(text + " ISBN: " + isbn + ".")
	}
	if title != "" && !strings.Contains(strings.ToLower(text), "course") {
		if text != "" && !endsClean.MatchString(text) {
			text += "."
		}
		text = strings.TrimSpace(text + fmt.Sprintf(" Helpful for courses related to %q.", title))
	}
	return text
}

// Truncate caps a model-written field without cutting mid-rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
