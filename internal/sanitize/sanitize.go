// Package sanitize strips markdown code fences from model output.
package sanitize

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const fence = "```"

// Clean trims raw and removes an outer code fence: a leading run of backticks
// with the language tag on its line, and a trailing run of backticks. Fences
// inside the text are left alone. The result is a fixed point, so
// Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	s := raw
	for {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimLeft(s, "`")
		line, rest, found := strings.Cut(s, "\n")
		switch {
		case isLanguageTag(line):
			if found {
				s = rest
			} else {
				s = ""
			}
		default:
			// "```python print(1)```" carries the tag on the code line
			if word, code, ok := strings.Cut(s, " "); ok && knownLanguages[strings.ToLower(word)] {
				s = code
			}
		}
	}
	if strings.HasSuffix(s, fence) {
		s = strings.TrimRight(s, "`")
	}
	return strings.TrimSpace(s)
}

var knownLanguages = map[string]bool{
	"python": true, "py": true, "json": true, "js": true, "javascript": true,
	"go": true, "yaml": true, "yml": true, "sql": true, "text": true,
	"markdown": true, "md": true, "svg": true, "xml": true, "html": true,
}

// isLanguageTag reports whether the remainder of a fence line is empty or a
// single info-string word such as "python" or "json"
func isLanguageTag(line string) bool {
	line = strings.TrimSpace(line)
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_+#.-", r):
		default:
			return false
		}
	}
	return true
}

// FencedBlock returns the body of the first fenced code block in a markdown
// document and its language
func FencedBlock(doc string) (body, language string, ok bool) {
	src := []byte(doc)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var block *ast.FencedCodeBlock
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fb, isFenced := n.(*ast.FencedCodeBlock); isFenced {
			block = fb
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if block == nil {
		return "", "", false
	}

	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String()), string(block.Language(src)), true
}
