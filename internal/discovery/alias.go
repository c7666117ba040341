package discovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
)

const maxSuggestions = 20

// Completer is the generative-text capability used for alias expansion and
// channel/query suggestions.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, jsonResponse bool) (string, error)
}

// AliasExpander turns product names into search aliases and suggests
// candidate channels and queries. Every method degrades deterministically on
// provider failure; none of them ever returns an error to the caller.
type AliasExpander struct {
	completer Completer
}

func NewAliasExpander(completer Completer) *AliasExpander {
	return &AliasExpander{completer: completer}
}

// Expand maps every product to a set of search aliases that always includes
// the product itself. On provider or parse failure each product falls back
// to its deterministic default aliases, so the result is never empty.
func (a *AliasExpander) Expand(ctx context.Context, products []string) map[string][]string {
	prompt := "Provide common nicknames, abbreviations, chipset names, and competitor keywords " +
		"for each of the following products. Return a JSON object mapping each product name " +
		"to an array of alias strings.\nProducts: " + strings.Join(products, ", ")

	raw, err := a.completer.Complete(ctx, "You expand product names into common aliases.", prompt, true)
	if err != nil {
		slog.Warn("[AliasExpander] Alias generation failed; using defaults",
			slog.String("error", err.Error()))
		return defaultAliases(products)
	}

	var data map[string][]string
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		slog.Warn("[AliasExpander] Failed to parse alias response; using defaults",
			slog.String("error", err.Error()))
		return defaultAliases(products)
	}

	expanded := make(map[string][]string, len(products))
	for _, product := range products {
		expanded[product] = sortedSet(append([]string{product}, data[product]...))
	}
	return expanded
}

// SuggestChannels proposes up to 20 candidate channels for the platform
// (subreddit names for reddit, channel search terms for youtube), deduplicated
// in first-seen order. Provider failure yields an empty list, never an error.
func (a *AliasExpander) SuggestChannels(ctx context.Context, products []string, platform string) []string {
	var prompt string
	switch platform {
	case "reddit":
		prompt = "Suggest subreddit names (without the r/ prefix) where people discuss these products: " +
			strings.Join(products, ", ") + `. Return a JSON object: {"channels": ["name", ...]}.`
	default:
		prompt = "Suggest YouTube channel names that review or discuss these products: " +
			strings.Join(products, ", ") + `. Return a JSON object: {"channels": ["name", ...]}.`
	}

	return a.suggestList(ctx, prompt, "channels")
}

// SuggestQueries proposes up to 20 search queries for the products,
// deduplicated in first-seen order. Provider failure yields an empty list.
func (a *AliasExpander) SuggestQueries(ctx context.Context, products []string) []string {
	prompt := "Suggest short search queries people use when discussing these products online: " +
		strings.Join(products, ", ") + `. Return a JSON object: {"queries": ["query", ...]}.`

	return a.suggestList(ctx, prompt, "queries")
}

func (a *AliasExpander) suggestList(ctx context.Context, prompt, field string) []string {
	raw, err := a.completer.Complete(ctx, "You suggest where to look for consumer product commentary.", prompt, true)
	if err != nil {
		slog.Warn("[AliasExpander] Suggestion call failed; returning empty list",
			slog.String("field", field),
			slog.String("error", err.Error()))
		return []string{}
	}

	var data map[string][]string
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		slog.Warn("[AliasExpander] Failed to parse suggestion response; returning empty list",
			slog.String("field", field),
			slog.String("error", err.Error()))
		return []string{}
	}

	return dedupeOrdered(data[field], maxSuggestions)
}

// defaultAliases is the deterministic fallback: the product itself, its
// lowercase form, and its whitespace-stripped lowercase form, deduplicated.
func defaultAliases(products []string) map[string][]string {
	aliases := make(map[string][]string, len(products))
	for _, product := range products {
		lower := strings.ToLower(product)
		stripped := strings.ReplaceAll(lower, " ", "")
		aliases[product] = dedupeOrdered([]string{product, lower, stripped}, 0)
	}
	return aliases
}

// dedupeOrdered keeps first occurrences in order, optionally capped at max.
func dedupeOrdered(items []string, max int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, exists := seen[item]; exists {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func sortedSet(items []string) []string {
	set := dedupeOrdered(items, 0)
	sort.Strings(set)
	return set
}
