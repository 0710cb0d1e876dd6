package aiflow

import (
	"strings"
	"testing"
)

// ── Model output decoding ──

func TestDecodeModelJSONPlain(t *testing.T) {
	var out []string
	if err := decodeModelJSON(`["Go", "Rust"]`, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0] != "Go" {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestDecodeModelJSONFenced(t *testing.T) {
	raw := "```json\n{\"verified\": true, \"reason\": \"looks right\"}\n```"
	var out VerifyResult
	if err := decodeModelJSON(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Verified || out.Reason != "looks right" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestDecodeModelJSONGarbage(t *testing.T) {
	var out []string
	if err := decodeModelJSON("sorry, I cannot do that", &out); err == nil {
		t.Fatal("expected an error for non-JSON output")
	}
}

// ── Preview word cap ──

func TestCapWordsShortTextUntouched(t *testing.T) {
	text := "a short preview"
	if got := capWords(text, 200); got != text {
		t.Fatalf("short text should be unchanged, got %q", got)
	}
}

func TestCapWordsTruncatesLongText(t *testing.T) {
	long := strings.Repeat("word ", 300)
	got := capWords(long, 200)
	if n := len(strings.Fields(got)); n != 200 {
		t.Fatalf("expected 200 words, got %d", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected truncation marker, got %q", got[len(got)-10:])
	}
}

// ── Suggestion filtering ──

func TestDropKnownSkillsFiltersCaseInsensitively(t *testing.T) {
	got := dropKnownSkills(
		[]string{"Rust", "go", "Figma", "  PYTHON  "},
		[]string{"Go", "Python"},
	)
	want := []string{"Rust", "Figma"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDropKnownSkillsKeepsAllWhenUserHasNone(t *testing.T) {
	got := dropKnownSkills([]string{"Go", "Rust"}, nil)
	if len(got) != 2 {
		t.Fatalf("expected all suggestions kept, got %v", got)
	}
}
