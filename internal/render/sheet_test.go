package render

import (
	"encoding/json"
	"strings"
	"testing"

	"RPG-CARDS/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(s string) processor.MergedDocument {
	return processor.MergedDocument(s)
}

func TestCardsExpandCount(t *testing.T) {
	sheet := NewSheet()

	cards, err := sheet.Cards([]processor.MergedDocument{
		doc(`{"count": 3, "title": "Goblin", "contents": [], "tags": [], "color": "#00FF00"}`),
		doc(`{"count": "2", "title": "Orc"}`),
		doc(`{"count": 0, "title": "Rat"}`),
		doc(`{"title": "Troll"}`),
	})
	require.NoError(t, err)

	var titles []string
	for _, c := range cards {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"Goblin", "Goblin", "Goblin", "Orc", "Orc", "Rat", "Troll"}, titles)
	assert.Equal(t, "13", cards[0].TitleSize)
}

func TestCardsNaNCountPrintsOnce(t *testing.T) {
	cards, err := NewSheet().Cards([]processor.MergedDocument{doc(`{"count": "NaN", "title": "Ghost"}`)})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Ghost", cards[0].Title)
}

func TestCopiesIsBounded(t *testing.T) {
	assert.Equal(t, maxCopies, copies(json.RawMessage(`100000`)))
	assert.Equal(t, 1, copies(json.RawMessage(`"lots"`)))
	assert.Equal(t, 1, copies(nil))
	assert.Equal(t, 1, copies(json.RawMessage(`"NaN"`)))
	assert.Equal(t, 1, copies(json.RawMessage(`"-Inf"`)))
	assert.Equal(t, maxCopies, copies(json.RawMessage(`"+Inf"`)))
}

func TestParseElement(t *testing.T) {
	sheet := NewSheet()

	el := sheet.parseElement("fill | 2")
	assert.Equal(t, "fill", el.Kind)
	assert.Equal(t, 2, el.Weight)

	el = sheet.parseElement("property | HP | 7 | (2d6)")
	assert.Equal(t, "property", el.Kind)
	assert.Equal(t, "HP", string(el.Name))
	assert.Equal(t, "7 | (2d6)", string(el.Body))

	el = sheet.parseElement("text | <b>Bold</b><script>alert(1)</script>")
	assert.Equal(t, "<b>Bold</b>", string(el.Body))

	el = sheet.parseElement("plain line")
	assert.Equal(t, "text", el.Kind)
	assert.Equal(t, "plain line", string(el.Body))
}

func TestRender(t *testing.T) {
	html, err := NewSheet().Render([]processor.MergedDocument{
		doc(`{"count": 1, "title": "Goblin", "contents": ["subtitle | Small humanoid", "rule", "text | Sneaky"], "tags": ["monster", "small"], "color": "#0000FF", "title_size": "13", "card_font_size": "12", "icon": "goblin"}`),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<h4>Small humanoid</h4>")
	assert.Contains(t, html, "<hr>")
	assert.Contains(t, html, "<p>Sneaky</p>")
	assert.Contains(t, html, "monster, small")
	assert.Contains(t, html, "<span>Goblin</span>")
}

func TestRenderRejectsNonObject(t *testing.T) {
	_, err := NewSheet().Render([]processor.MergedDocument{doc(`[1, 2]`)})
	assert.ErrorContains(t, err, "card 0")
}
