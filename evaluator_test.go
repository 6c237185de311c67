package slotmark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEvaluator(t *testing.T) {
	e := NewTemplateEvaluator(map[string]any{"Name": "World"})
	res := e.Evaluate(context.Background(), "<p>Hello {{.Name}}</p>")

	require.True(t, res.OK())
	assert.Equal(t, "<p>Hello World</p>", res.Content)
}

func TestTemplateEvaluatorParseError(t *testing.T) {
	e := NewTemplateEvaluator(nil)
	res := e.Evaluate(context.Background(), "{{if}}")

	assert.False(t, res.OK())
	assert.Contains(t, res.Error, "template parse")
}

func TestTemplateEvaluatorFuncs(t *testing.T) {
	e := &TemplateEvaluator{
		Data:  map[string]any{"Word": "go"},
		Funcs: map[string]any{"shout": func(s string) string { return s + "!" }},
	}
	res := e.Evaluate(context.Background(), "{{shout .Word}}")

	require.True(t, res.OK())
	assert.Equal(t, "go!", res.Content)
}

func TestNopEvaluator(t *testing.T) {
	res := NopEvaluator{}.Evaluate(context.Background(), "anything")
	assert.False(t, res.OK())
	assert.Contains(t, res.Error, "no block evaluator")
}
