// Package prompt renders financial tables into prompt templates and sends the
// result to a language model.
package prompt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/llm"
	"sector-insights/internal/table"
)

// DataField is the only placeholder a template may reference, as {{.data}}
const DataField = "data"

// TemplateError reports a template whose placeholders are not exactly {data}
type TemplateError struct {
	Name       string
	Missing    []string
	Unexpected []string
	Err        error
}

func (e *TemplateError) Error() string {
	var parts []string
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing placeholders "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected placeholders "+strings.Join(e.Unexpected, ", "))
	}
	name := e.Name
	if name == "" {
		name = "prompt"
	}
	return fmt.Sprintf("template %s: %s", name, strings.Join(parts, "; "))
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Check parses text and verifies that it references {{.data}} and nothing else
func Check(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &TemplateError{Name: name, Err: err}
	}

	fields := make(map[string]bool)
	if tmpl.Tree != nil {
		collectFields(tmpl.Tree.Root, fields)
	}

	te := &TemplateError{Name: name}
	if !fields[DataField] {
		te.Missing = []string{DataField}
	}
	for f := range fields {
		if f != DataField {
			te.Unexpected = append(te.Unexpected, f)
		}
	}
	if len(te.Missing) > 0 || len(te.Unexpected) > 0 {
		sort.Strings(te.Unexpected)
		return nil, te
	}
	return tmpl, nil
}

func collectFields(node parse.Node, out map[string]bool) {
	switch n := node.(type) {
	case nil:
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectFields(c, out)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, out)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			collectFields(c, out)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			collectFields(a, out)
		}
	case *parse.FieldNode:
		out[n.Ident[0]] = true
	case *parse.ChainNode:
		collectFields(n.Node, out)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, out)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, out)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, out)
	case *parse.TemplateNode:
		collectFields(n.Pipe, out)
	}
}

func collectBranch(b *parse.BranchNode, out map[string]bool) {
	collectFields(b.Pipe, out)
	collectFields(b.List, out)
	collectFields(b.ElseList, out)
}

// Render substitutes the fixed-width text of tbl for {{.data}}
func Render(text string, tbl *table.Table) (string, error) {
	tmpl, err := Check("prompt", text)
	if err != nil {
		return "", err
	}
	return execute(tmpl, tbl)
}

func execute(tmpl *template.Template, tbl *table.Table) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{DataField: tbl.String()}); err != nil {
		return "", &TemplateError{Name: tmpl.Name(), Err: err}
	}
	return buf.String(), nil
}

// Engine renders prompts and completes them with a language model
type Engine struct {
	completer interfaces.Completer
}

// NewEngine creates an engine backed by completer
func NewEngine(completer interfaces.Completer) *Engine {
	return &Engine{completer: completer}
}

// Run renders text with tbl and returns the model's reply. A model failure is
// returned as *llm.ServiceError.
func (e *Engine) Run(ctx context.Context, text string, tbl *table.Table) (string, error) {
	rendered, err := Render(text, tbl)
	if err != nil {
		return "", err
	}
	return e.complete(ctx, rendered)
}

func (e *Engine) complete(ctx context.Context, rendered string) (string, error) {
	reply, err := e.completer.Complete(ctx, rendered)
	if err != nil {
		if llm.IsServiceError(err) {
			return "", err
		}
		return "", &llm.ServiceError{Provider: e.completer.Name(), Attempts: 1, Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return "", &llm.ServiceError{Provider: e.completer.Name(), Attempts: 1, Err: llm.ErrEmptyResponse}
	}
	return reply, nil
}

// IsTemplateError reports whether err is a placeholder mismatch
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}
