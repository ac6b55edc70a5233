package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultCount        = 1
	DefaultTitle        = ""
	DefaultCardElements = "fill | 1\ntext | {{Description}}\nfill | 1"
	DefaultTags         = ""
	DefaultColor        = "#0000FF"
	DefaultTitleSize    = 13
	DefaultCardFontSize = 12
	DefaultIcon         = ""
)

// CardForm is the raw input a user fills in to describe a card. Blank or
// zero inputs become placeholders in the generated template.
type CardForm struct {
	Count         int    `json:"count"`
	Title         string `json:"title"`
	CardElements  string `json:"card_elements"`
	Tags          string `json:"tags"`
	Color         string `json:"color"`
	VariableColor bool   `json:"variable_color"`
	TitleSize     int    `json:"title_size"`
	CardFontSize  int    `json:"card_font_size"`
	Icon          string `json:"icon"`
}

func DefaultCardForm() CardForm {
	return CardForm{
		Count:        DefaultCount,
		Title:        DefaultTitle,
		CardElements: DefaultCardElements,
		Tags:         DefaultTags,
		Color:        DefaultColor,
		TitleSize:    DefaultTitleSize,
		CardFontSize: DefaultCardFontSize,
		Icon:         DefaultIcon,
	}
}

// cardTemplate fixes the key order of the generated JSON.
type cardTemplate struct {
	Count        any      `json:"count"`
	Title        string   `json:"title"`
	Contents     []string `json:"contents"`
	Tags         []string `json:"tags"`
	Color        string   `json:"color"`
	TitleSize    string   `json:"title_size"`
	CardFontSize string   `json:"card_font_size"`
	Icon         string   `json:"icon"`
}

// BuildTemplate renders the card template JSON for form.
func BuildTemplate(form CardForm) (string, error) {
	tmpl := cardTemplate{
		Count:        form.Count,
		Title:        strings.TrimSpace(form.Title),
		Contents:     splitNonBlankLines(form.CardElements),
		Tags:         splitTags(form.Tags),
		Color:        form.Color,
		TitleSize:    strconv.Itoa(form.TitleSize),
		CardFontSize: strconv.Itoa(form.CardFontSize),
		Icon:         strings.TrimSpace(form.Icon),
	}
	if form.Count <= 0 {
		tmpl.Count = Placeholder("Count")
	}
	if tmpl.Title == "" {
		tmpl.Title = Placeholder("Title")
	}
	if form.VariableColor {
		tmpl.Color = Placeholder("Color")
	}
	if tmpl.Icon == "" {
		tmpl.Icon = Placeholder("Icon")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tmpl); err != nil {
		return "", fmt.Errorf("failed to encode card template: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ElementFields lists the fields used by the card elements alone.
func ElementFields(form CardForm) []string {
	return ExtractFields(form.CardElements)
}

func splitNonBlankLines(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitTags(text string) []string {
	tags := []string{}
	for _, tag := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
