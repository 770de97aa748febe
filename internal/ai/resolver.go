// Package ai provides the batched AI fallback resolver invoked for
// fields no deterministic tier could answer.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/autofill-agent/internal/llm"
	"github.com/jonathan/autofill-agent/internal/types"
)

// maxBatchFields caps one inference call; larger scans are chunked.
const maxBatchFields = 40

// Resolver turns a batch of unresolved fields plus profile context into
// a selector-keyed result map via one model call per chunk.
type Resolver struct {
	client llm.Client
}

// NewResolver creates a Resolver around an LLM client.
func NewResolver(client llm.Client) *Resolver {
	return &Resolver{client: client}
}

// aiAnswer mirrors the JSON shape the model is asked to produce.
type aiAnswer struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Resolve answers the given fields. A nil client or a failed call yields
// an empty map, never an error surfaced to the scan.
func (r *Resolver) Resolve(ctx context.Context, fields []types.Field, profile *types.Profile) types.ResultMap {
	results := make(types.ResultMap)
	if r == nil || r.client == nil || len(fields) == 0 {
		return results
	}

	for start := 0; start < len(fields); start += maxBatchFields {
		end := start + maxBatchFields
		if end > len(fields) {
			end = len(fields)
		}
		r.resolveBatch(ctx, fields[start:end], profile, results)
	}
	return results
}

func (r *Resolver) resolveBatch(ctx context.Context, fields []types.Field, profile *types.Profile, results types.ResultMap) {
	prompt := buildPrompt(fields, profile)
	raw, err := r.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return
	}

	answers := make(map[string]aiAnswer)
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return
	}

	for _, f := range fields {
		answer, ok := answers[f.Selector]
		if !ok {
			continue
		}
		value := normalizeValue(answer.Value)
		if value == nil {
			continue
		}
		results[f.Selector] = types.Resolution{
			Value:      value,
			Confidence: clamp(answer.Confidence),
			Source:     types.SourceAI,
			FieldType:  f.Type,
		}
	}
}

// buildPrompt renders the field batch and the candidate's profile into a
// single structured prompt.
func buildPrompt(fields []types.Field, profile *types.Profile) string {
	var sb strings.Builder
	sb.WriteString("You are filling a job application form for the candidate described below.\n")
	sb.WriteString("Answer each field with the candidate's real data. If a field cannot be answered from the profile, omit it.\n\n")

	if profile != nil {
		if ctx, err := json.Marshal(profile); err == nil {
			sb.WriteString("CANDIDATE PROFILE:\n")
			sb.Write(ctx)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("FIELDS:\n")
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("- selector: %s\n  question: %s\n  type: %s\n", f.Selector, f.Label, f.Type))
		if len(f.Options) > 0 {
			sb.WriteString(fmt.Sprintf("  options: %s\n", strings.Join(f.Options, " | ")))
		}
	}

	sb.WriteString("\nRespond with a single JSON object mapping each selector to ")
	sb.WriteString(`{"value": <string or array of strings>, "confidence": <0.0-1.0>}.`)
	sb.WriteString(" For option fields the value must be one of the listed options.")
	return sb.String()
}

func normalizeValue(raw any) any {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

func clamp(c float64) float64 {
	if c <= 0 {
		return 0.5 // models that omit confidence get a neutral default
	}
	if c > 1 {
		return 1
	}
	return c
}
