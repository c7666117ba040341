package textutil

import (
	"strings"
	"testing"
)

func TestNormalize_Basic(t *testing.T) {
	got := Normalize("  The Battery   Is GREAT!  ")
	want := "the battery is great!"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_StripsURLs(t *testing.T) {
	cases := []string{
		"check this https://example.com/review out",
		"check this www.example.com/review out",
		"check this [out](https://example.com/review) out",
	}
	for _, input := range cases {
		got := Normalize(input)
		if strings.Contains(got, "example.com") {
			t.Errorf("Normalize(%q) = %q, still contains URL", input, got)
		}
	}
}

func TestNormalize_MarkdownLinkKeepsAnchorText(t *testing.T) {
	got := Normalize("read the [full review](https://example.com/x) here")
	want := "read the full review here"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"  Mixed   WHITESPACE\tand\nnewlines ",
		"a **bold** claim about the camera",
		"love it https://shop.example.com/buy?id=1",
		"plain already normalized text",
		"&gt; the battery is bad\n\nI disagree, it lasts two days",
		"AT&amp;T coverage is fine",
		"",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalize_EntityQuoteMarkersConsumed(t *testing.T) {
	got := Normalize("&gt; the battery is bad\n\nI disagree, it lasts two days")
	want := "the battery is bad i disagree, it lasts two days"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := Normalize("spaced    out\t\ttext\n\nhere")
	if strings.Contains(got, "  ") {
		t.Errorf("Normalize = %q, contains double space", got)
	}
	if got != strings.TrimSpace(got) {
		t.Errorf("Normalize = %q, has leading/trailing whitespace", got)
	}
}

func TestNormalize_Lowercases(t *testing.T) {
	got := Normalize("LOUD Opinions About CAMERAS")
	if got != strings.ToLower(got) {
		t.Errorf("Normalize = %q, not lowercase", got)
	}
}
