package render

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	out, err := HTML("**Revenue** grew 8%.\n\n1. Margin held\n2. Cash flow rose")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"<strong>Revenue</strong>", "<ol>", "<li>Margin held</li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %s", want, out)
		}
	}
}

func TestHTMLEscapesRawHTML(t *testing.T) {
	out, err := HTML("<script>alert(1)</script>\n\nok")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("Expected raw HTML to be dropped, got %s", out)
	}
}

func TestNarrativePlainText(t *testing.T) {
	_, text, err := Narrative("### Summary\n\n- Revenue **up** 8%\n- Net income flat\n\nOverall   stable.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "Summary\n- Revenue up 8%\n- Net income flat\nOverall stable."
	if text != want {
		t.Errorf("Expected %q, got %q", want, text)
	}
}

func TestPlainTextWithoutBlocks(t *testing.T) {
	text, err := PlainText("just <em>inline</em> text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "just inline text" {
		t.Errorf("Expected 'just inline text', got %q", text)
	}
}
