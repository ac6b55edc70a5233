// Package render lays merged card documents out as a printable HTML sheet.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"RPG-CARDS/internal/processor"

	"github.com/microcosm-cc/bluemonday"
)

// maxCopies bounds how many times one card is repeated on a sheet.
const maxCopies = 100

// Card is the printable view of one merged document.
type Card struct {
	Title        string
	Color        string
	Icon         string
	Tags         []string
	TitleSize    string
	CardFontSize string
	Elements     []Element
}

// Element is one parsed "kind | params" content line.
type Element struct {
	Kind   string
	Name   template.HTML
	Body   template.HTML
	Weight int
}

type cardDocument struct {
	Count        json.RawMessage `json:"count"`
	Title        string          `json:"title"`
	Contents     []string        `json:"contents"`
	Tags         []string        `json:"tags"`
	Color        string          `json:"color"`
	TitleSize    string          `json:"title_size"`
	CardFontSize string          `json:"card_font_size"`
	Icon         string          `json:"icon"`
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>RPG Cards</title>
<style>
body { font-family: sans-serif; margin: 0; }
.sheet { display: flex; flex-wrap: wrap; gap: 4mm; padding: 5mm; }
.card { width: 63mm; height: 88mm; border: 2mm solid; border-radius: 3mm; box-sizing: border-box; padding: 2mm; display: flex; flex-direction: column; page-break-inside: avoid; }
.title { color: #fff; margin: -2mm -2mm 2mm -2mm; padding: 1mm 2mm; display: flex; justify-content: space-between; }
.tags { margin-top: auto; font-size: 8pt; color: #666; }
p, h4 { margin: 0.5mm 0; }
</style>
</head>
<body>
<div class="sheet">
{{- range .}}
<div class="card" style="border-color: {{.Color}}; font-size: {{.CardFontSize}}pt;">
  <div class="title" style="background: {{.Color}}; font-size: {{.TitleSize}}pt;"><span>{{.Title}}</span><span>{{.Icon}}</span></div>
  {{- range .Elements}}
  {{- if eq .Kind "subtitle"}}<h4>{{.Body}}</h4>
  {{- else if eq .Kind "rule"}}<hr>
  {{- else if eq .Kind "property"}}<p><b>{{.Name}}</b> {{.Body}}</p>
  {{- else if eq .Kind "fill"}}<div style="flex: {{.Weight}};"></div>
  {{- else}}<p>{{.Body}}</p>
  {{- end}}
  {{- end}}
  {{- if .Tags}}<div class="tags">{{range $i, $t := .Tags}}{{if $i}}, {{end}}{{$t}}{{end}}</div>{{end}}
</div>
{{- end}}
</div>
</body>
</html>
`))

// Sheet turns merged documents into printable cards. Each card is repeated
// according to its count.
type Sheet struct {
	policy *bluemonday.Policy
}

func NewSheet() *Sheet {
	return &Sheet{policy: bluemonday.UGCPolicy()}
}

// Cards parses documents into card views, expanding counts.
func (s *Sheet) Cards(documents []processor.MergedDocument) ([]Card, error) {
	var cards []Card
	for i, raw := range documents {
		var doc cardDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}

		card := Card{
			Title:        doc.Title,
			Color:        doc.Color,
			Icon:         doc.Icon,
			Tags:         doc.Tags,
			TitleSize:    orDefault(doc.TitleSize, strconv.Itoa(processor.DefaultTitleSize)),
			CardFontSize: orDefault(doc.CardFontSize, strconv.Itoa(processor.DefaultCardFontSize)),
		}
		for _, line := range doc.Contents {
			card.Elements = append(card.Elements, s.parseElement(line))
		}

		for n := copies(doc.Count); n > 0; n-- {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// Render writes the HTML sheet for documents.
func (s *Sheet) Render(documents []processor.MergedDocument) (string, error) {
	cards, err := s.Cards(documents)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, cards); err != nil {
		return "", fmt.Errorf("failed to render sheet: %w", err)
	}
	return buf.String(), nil
}

func (s *Sheet) parseElement(line string) Element {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	el := Element{Kind: parts[0]}
	switch el.Kind {
	case "rule":
	case "fill":
		el.Weight = 1
		if len(parts) > 1 {
			if w, err := strconv.Atoi(parts[1]); err == nil && w > 0 {
				el.Weight = w
			}
		}
	case "property":
		if len(parts) > 1 {
			el.Name = s.sanitize(parts[1])
		}
		if len(parts) > 2 {
			el.Body = s.sanitize(strings.Join(parts[2:], " | "))
		}
	default:
		if len(parts) > 1 {
			el.Body = s.sanitize(strings.Join(parts[1:], " | "))
		} else {
			el.Kind = "text"
			el.Body = s.sanitize(line)
		}
	}
	return el
}

func (s *Sheet) sanitize(text string) template.HTML {
	return template.HTML(s.policy.Sanitize(text))
}

// copies reads a card count that may be a JSON number or a numeric string.
func copies(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 1
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 1
		}
		n = parsed
	}

	switch {
	case math.IsNaN(n) || n < 1:
		return 1
	case n > maxCopies:
		return maxCopies
	default:
		return int(n)
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
