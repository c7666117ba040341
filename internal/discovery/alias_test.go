package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type mockCompleter struct {
	response string
	err      error
}

func (m *mockCompleter) Complete(_ context.Context, _, _ string, _ bool) (string, error) {
	return m.response, m.err
}

func TestExpand_ProviderFailureUsesDefaults(t *testing.T) {
	expander := NewAliasExpander(&mockCompleter{err: errors.New("provider down")})

	aliases := expander.Expand(context.Background(), []string{"Pixel 9"})
	got := aliases["Pixel 9"]
	want := []string{"Pixel 9", "pixel 9", "pixel9"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpand_IncludesProductItself(t *testing.T) {
	expander := NewAliasExpander(&mockCompleter{
		response: `{"Pixel 9": ["p9", "google pixel"]}`,
	})

	aliases := expander.Expand(context.Background(), []string{"Pixel 9"})
	got := aliases["Pixel 9"]
	found := false
	for _, alias := range got {
		if alias == "Pixel 9" {
			found = true
		}
	}
	if !found {
		t.Errorf("aliases %v do not include the product itself", got)
	}
	if len(got) != 3 {
		t.Errorf("got %d aliases, want 3: %v", len(got), got)
	}
}

func TestExpand_UnparsableResponseUsesDefaults(t *testing.T) {
	expander := NewAliasExpander(&mockCompleter{response: "not json"})

	aliases := expander.Expand(context.Background(), []string{"Galaxy S25"})
	if len(aliases["Galaxy S25"]) == 0 {
		t.Fatal("got no aliases, want deterministic defaults")
	}
}

func TestSuggestChannels_DedupesAndCaps(t *testing.T) {
	channels := `["android"`
	for i := 0; i < 30; i++ {
		channels += fmt.Sprintf(`, "sub%d"`, i)
	}
	channels += `, "android"]`

	expander := NewAliasExpander(&mockCompleter{
		response: `{"channels": ` + channels + `}`,
	})

	got := expander.SuggestChannels(context.Background(), []string{"Pixel 9"}, "reddit")
	if len(got) != maxSuggestions {
		t.Fatalf("got %d channels, want %d", len(got), maxSuggestions)
	}
	if got[0] != "android" {
		t.Errorf("got[0] = %q, want first-seen order kept", got[0])
	}
	seen := make(map[string]bool)
	for _, channel := range got {
		if seen[channel] {
			t.Errorf("duplicate channel %q", channel)
		}
		seen[channel] = true
	}
}

func TestSuggestChannels_FailureReturnsEmpty(t *testing.T) {
	expander := NewAliasExpander(&mockCompleter{err: errors.New("timeout")})

	got := expander.SuggestChannels(context.Background(), []string{"Pixel 9"}, "reddit")
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v, want empty non-nil list", got)
	}
}

func TestSuggestQueries_SkipsBlankEntries(t *testing.T) {
	expander := NewAliasExpander(&mockCompleter{
		response: `{"queries": ["pixel 9 review", "  ", "", "pixel 9 battery"]}`,
	})

	got := expander.SuggestQueries(context.Background(), []string{"Pixel 9"})
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 non-blank queries", got)
	}
}
