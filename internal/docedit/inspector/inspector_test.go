package inspector

import (
	"encoding/json"
	"testing"

	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/plugins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake(t *testing.T) {
	e, err := editor.New(editor.WithPlugins(plugins.Default()...))
	require.NoError(t, err)
	require.NoError(t, e.LoadData(`<p>a<span class="placeholder">{date}</span></p><figure class="image"><img src="a.png"/></figure>`))

	snap := Take(e.Model)
	assert.Equal(t, e.Model.Seq(), snap.Seq)
	assert.Equal(t, `<$root><paragraph>"a"<placeholder name="date"></placeholder></paragraph><image src="a.png"></image></$root>`, snap.Tree)
	assert.Equal(t, "collapsed", snap.Selection.Type)

	require.Len(t, snap.Root.Content, 2)
	p := snap.Root.Content[0]
	assert.Equal(t, "paragraph", p.Type)
	require.Len(t, p.Content, 2)
	assert.Equal(t, Node{Type: "text", Text: "a"}, p.Content[0])
	assert.Equal(t, Node{Type: "placeholder", Attrs: map[string]any{"name": "date"}}, p.Content[1])

	require.NoError(t, e.SetSelection(model.On(e.Model.Root().Child(1))))
	snap = Take(e.Model)
	assert.Equal(t, Selection{Type: "on", On: []int{1}}, snap.Selection)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"image","attrs":{"src":"a.png"}`)
}

func TestTakeEmptySelection(t *testing.T) {
	e, err := editor.New()
	require.NoError(t, err)
	require.NoError(t, e.SetSelection(model.Selection{}))
	assert.Equal(t, Selection{Type: "none"}, Take(e.Model).Selection)
	assert.Equal(t, "<$root></$root>", Take(e.Model).Tree)
}
