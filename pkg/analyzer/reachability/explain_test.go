package reachability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/sweep/pkg/graph"
)

func TestExplain_ShortestPath(t *testing.T) {
	f := newFixture()
	main := f.decl(graph.KindFunctionFree, "main", "s:main")
	detour := f.decl(graph.KindFunctionFree, "detour", "s:detour")
	helper := f.decl(graph.KindFunctionFree, "helper", "s:helper")
	f.ref(main, "s:detour", graph.RoleUse)
	f.ref(detour, "s:helper", graph.RoleUse)
	f.ref(main, "s:helper", graph.RoleUse)
	f.ref(helper, "s:helper", graph.RoleUse)
	f.g.Freeze()

	exp, err := New(WithPolicy(NewAttributePolicy())).Explain(context.Background(), f.g, "s:helper")
	require.NoError(t, err)
	assert.Same(t, helper, exp.Target)
	assert.Equal(t, []*graph.Declaration{main, helper}, exp.Path)
}

func TestExplain_RootExplainsItself(t *testing.T) {
	f := newFixture()
	main := f.decl(graph.KindFunctionFree, "main", "s:main")
	f.g.Freeze()

	exp, err := New(WithPolicy(NewAttributePolicy())).Explain(context.Background(), f.g, "s:main")
	require.NoError(t, err)
	assert.Equal(t, []*graph.Declaration{main}, exp.Path)
}

func TestExplain_Errors(t *testing.T) {
	f := newFixture()
	f.decl(graph.KindFunctionFree, "dead", "s:dead")
	f.g.Freeze()

	an := New(WithPolicy(NewAttributePolicy()))
	_, err := an.Explain(context.Background(), f.g, "s:missing")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = an.Explain(context.Background(), f.g, "s:dead")
	assert.ErrorIs(t, err, ErrNotRetained)

	_, err = New().Explain(context.Background(), f.g, "s:dead")
	assert.ErrorIs(t, err, ErrNoPolicy)
}
