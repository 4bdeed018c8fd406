package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoxSchema(t *testing.T) *Registry {
	t.Helper()
	r := New()
	require.NoError(t, r.Register("paragraph", Definition{AllowWhere: Block, AllowContentOf: Block, IsBlock: true}))
	require.NoError(t, r.Register("box", Definition{AllowWhere: Block, IsObject: true}))
	require.NoError(t, r.Register("boxTitle", Definition{AllowIn: []string{"box"}, AllowContentOf: Block, IsLimit: true}))
	require.NoError(t, r.Register("boxBody", Definition{AllowIn: []string{"box"}, AllowContentOf: Root, IsLimit: true}))
	require.NoError(t, r.Register("chip", Definition{AllowWhere: Text, IsInline: true, IsObject: true, AllowAttributes: []string{"name"}}))
	r.AddChildCheck(func(ctx Context, child string) (bool, bool) {
		if ctx.Last() == "boxBody" && child == "box" {
			return false, true
		}
		return false, false
	})
	return r
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("paragraph", Definition{}))
	assert.Error(t, r.Register("paragraph", Definition{}))
	assert.Error(t, r.Register(Root, Definition{}))
	assert.Error(t, r.Extend("unknown", Definition{}))
}

func TestIsChildAllowed(t *testing.T) {
	r := newBoxSchema(t)

	tests := []struct {
		parent, child string
		want          bool
	}{
		{Root, "paragraph", true},
		{Root, "box", true},
		{"paragraph", Text, true},
		{"paragraph", "chip", true},
		{"box", "boxTitle", true},
		{"box", "paragraph", false},
		{"boxTitle", Text, true},
		{"boxTitle", "chip", true},
		{"boxTitle", "paragraph", false},
		{"boxBody", "paragraph", true},
		{"boxBody", "box", true},
		{Root, Text, false},
		{Root, "unknown", false},
		{"unknown", "paragraph", false},
	}
	for _, tt := range tests {
		t.Run(tt.parent+">"+tt.child, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsChildAllowed(tt.parent, tt.child))
		})
	}
}

func TestCheckChildVeto(t *testing.T) {
	r := newBoxSchema(t)

	assert.True(t, r.CheckChild(Context{Root}, "box"))
	assert.False(t, r.CheckChild(Context{Root, "box", "boxBody"}, "box"))
	assert.True(t, r.CheckChild(Context{Root, "box", "boxBody"}, "paragraph"))
}

func TestFindAllowedParent(t *testing.T) {
	r := newBoxSchema(t)

	depth, ok := r.FindAllowedParent(Context{Root, "paragraph"}, "box")
	require.True(t, ok)
	assert.Equal(t, 1, depth)

	// Внутри заголовка бокс запрещен, а заголовок является границей.
	_, ok = r.FindAllowedParent(Context{Root, "box", "boxTitle"}, "box")
	assert.False(t, ok)

	// Внутри описания бокс запрещен предикатом, подняться выше границы нельзя.
	_, ok = r.FindAllowedParent(Context{Root, "box", "boxBody", "paragraph"}, "box")
	assert.False(t, ok)
}

func TestAttributes(t *testing.T) {
	r := newBoxSchema(t)

	assert.True(t, r.IsAttributeAllowed("chip", "name"))
	assert.False(t, r.IsAttributeAllowed("chip", "src"))
	assert.False(t, r.IsAttributeAllowed("unknown", "name"))

	require.NoError(t, r.Extend("chip", Definition{AllowAttributes: []string{"src"}}))
	assert.True(t, r.IsAttributeAllowed("chip", "src"))

	require.NoError(t, r.Register("chip2", Definition{AllowAttributesOf: "chip"}))
	assert.True(t, r.IsAttributeAllowed("chip2", "name"))
}

func TestFlags(t *testing.T) {
	r := newBoxSchema(t)

	assert.True(t, r.IsObject("box"))
	assert.True(t, r.IsLimit("box"))
	assert.True(t, r.IsLimit("boxTitle"))
	assert.False(t, r.IsObject("boxTitle"))
	assert.True(t, r.IsInline("chip"))
	assert.True(t, r.IsBlock("paragraph"))
	assert.False(t, r.IsObject("unknown"))
	assert.Equal(t, []string{Root, Block, Text, "paragraph", "box", "boxTitle", "boxBody", "chip"}, r.Kinds())
}
