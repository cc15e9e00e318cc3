// Package reflection calls the AI generator that turns a journal entry into
// a short supportive reflection and a one-word mood label.
//
// The adapter is total: Analyze never fails from the caller's perspective.
// Reflections are a best-effort enrichment, not a critical path, so every
// internal failure resolves to one of two fixed fallback pairs and there
// are no retries.
package reflection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Insight is the generator's answer for one entry: a one-word mood label
// and a 2-3 sentence supportive reflection. Both fields are always set.
type Insight struct {
	Mood       string `json:"mood"`
	Reflection string `json:"reflection"`
}

// Analyzer produces an Insight for a non-empty journal entry text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) Insight
}

// The two failure modes produce distinguishable texts so the user can tell
// "the AI service was down" from "the AI answered garbage".
var (
	// unavailableInsight is returned on transport/service failure.
	unavailableInsight = Insight{
		Mood:       "Unknown",
		Reflection: "An error occurred while generating AI insights. Your entry is safe and can be saved as usual.",
	}

	// neutralInsight is returned when the generator responded but its
	// output could not be parsed. Its fields also serve as per-field
	// defaults when the generator omits exactly one of the two.
	neutralInsight = Insight{
		Mood:       "Neutral",
		Reflection: "Thank you for sharing your thoughts today.",
	}
)

const systemPrompt = `You are an empathetic personal journal assistant. Analyze the journal entry you are given.
Provide a brief, supportive reflection (2-3 sentences) and identify the primary mood (one word).`

// generateFunc is the seam between the adapter logic and the Gemini SDK.
// Tests replace it to simulate transport faults and malformed output.
type generateFunc func(ctx context.Context, text string) (string, error)

// GeminiAnalyzer implements Analyzer against the Gemini API.
type GeminiAnalyzer struct {
	generate generateFunc
	log      *slog.Logger
}

// NewGeminiAnalyzer constructs an Analyzer backed by the Gemini API.
// An empty apiKey is allowed: the analyzer is then permanently in the
// service-unavailable state and every Analyze call returns the transport
// fallback. The entry workflow keeps working without a configured key.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string, log *slog.Logger) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		log.Warn("gemini api key not configured; reflections will use the unavailable fallback")
		return &GeminiAnalyzer{
			generate: func(context.Context, string) (string, error) {
				return "", errors.New("gemini api key not configured")
			},
			log: log,
		}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("reflection: create gemini client: %w", err)
	}

	// Ask for structured output: a JSON object with exactly the two
	// fields the workflow merges into the draft.
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"mood":       {Type: genai.TypeString},
				"reflection": {Type: genai.TypeString},
			},
			Required: []string{"mood", "reflection"},
		},
	}

	return &GeminiAnalyzer{
		generate: func(ctx context.Context, text string) (string, error) {
			contents := []*genai.Content{
				genai.NewContentFromText("Entry: "+text, genai.RoleUser),
			}
			resp, err := client.Models.GenerateContent(ctx, model, contents, config)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
		log: log,
	}, nil
}

// Analyze returns the generator's mood and reflection for the given text.
// It never returns an error and never returns an empty field:
//   - transport/service failure → the "unavailable" fallback pair
//   - unparsable output → the "neutral" fallback pair
//   - a single missing field → that field defaulted, the other kept verbatim
func (a *GeminiAnalyzer) Analyze(ctx context.Context, text string) Insight {
	raw, err := a.generate(ctx, text)
	if err != nil {
		a.log.Warn("reflection generator unavailable", "error", err)
		return unavailableInsight
	}

	var insight Insight
	if err := json.Unmarshal([]byte(extractJSON(raw)), &insight); err != nil {
		a.log.Warn("reflection output unparsable", "error", err)
		return neutralInsight
	}

	// Default missing fields individually rather than failing the call.
	if strings.TrimSpace(insight.Mood) == "" {
		insight.Mood = neutralInsight.Mood
	}
	if strings.TrimSpace(insight.Reflection) == "" {
		insight.Reflection = neutralInsight.Reflection
	}
	return insight
}

// extractJSON returns the substring between the first '{' and the last '}'.
// Models occasionally wrap JSON in code fences or prose even when asked for
// a bare object; taking the outermost braces strips that wrapping.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
