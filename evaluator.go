package slotmark

import (
	"context"
	"strings"
	"text/template"
)

// Evaluator executes an executable block's code and produces markup. The
// pipeline treats it as a black box: it is called once per executable block,
// and any non-success result becomes a block-local inline error. The
// evaluator may be arbitrarily slow; cancellation, if needed, belongs to the
// ctx its host supplies.
type Evaluator interface {
	Evaluate(ctx context.Context, code string) RenderResult
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, code string) RenderResult

func (f EvaluatorFunc) Evaluate(ctx context.Context, code string) RenderResult {
	return f(ctx, code)
}

// TemplateEvaluator is the reference Evaluator. It treats block code as a
// text/template body executed against a data map (typically the item's
// metadata), producing a markup fragment. Multi-fragment output is joined
// with newlines.
type TemplateEvaluator struct {
	Data  map[string]any
	Funcs template.FuncMap
}

// NewTemplateEvaluator returns a template evaluator over the given data.
func NewTemplateEvaluator(data map[string]any) *TemplateEvaluator {
	return &TemplateEvaluator{Data: data}
}

func (e *TemplateEvaluator) Evaluate(_ context.Context, code string) RenderResult {
	tmpl := template.New("block")
	if len(e.Funcs) > 0 {
		tmpl = tmpl.Funcs(e.Funcs)
	}
	tmpl, err := tmpl.Parse(code)
	if err != nil {
		return Failure("template parse: %v", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, e.Data); err != nil {
		return Failure("template execute: %v", err)
	}
	return Success(strings.TrimSpace(sb.String()))
}

// NopEvaluator rejects every executable block. Used when a host wires no
// evaluator: executable blocks then render as inline errors instead of
// silently disappearing.
type NopEvaluator struct{}

func (NopEvaluator) Evaluate(context.Context, string) RenderResult {
	return Failure("no block evaluator configured")
}
