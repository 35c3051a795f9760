package discord

import (
	"time"

	"github.com/fireteam-lab/fireteam/internal/views"
)

const (
	componentActionRow = 1
	componentButton    = 2
)

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Author    user   `json:"author"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string        `json:"title,omitempty"`
	Color     int           `json:"color"`
	Fields    []views.Field `json:"fields"`
	Footer    *embedFooter  `json:"footer,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
}

type component struct {
	Type       int         `json:"type"`
	Label      string      `json:"label,omitempty"`
	Style      int         `json:"style,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Components []component `json:"components,omitempty"`
}

type messagePayload struct {
	Content    string      `json:"content"`
	Embeds     []embed     `json:"embeds"`
	Components []component `json:"components"`
}

// toPayload converts a rendered view into the message create/edit body.
func toPayload(v views.RenderedView) messagePayload {
	e := embed{
		Title:  v.Embed.Title,
		Color:  v.Embed.Color,
		Fields: v.Embed.Fields,
	}
	if v.Embed.Footer != "" {
		e.Footer = &embedFooter{Text: v.Embed.Footer}
	}
	if !v.Embed.Timestamp.IsZero() {
		e.Timestamp = v.Embed.Timestamp.Format(time.RFC3339)
	}

	row := component{Type: componentActionRow}
	for _, b := range v.Buttons {
		row.Components = append(row.Components, component{
			Type:     componentButton,
			Label:    b.Label,
			Style:    int(b.Style),
			CustomID: b.CustomID,
		})
	}

	p := messagePayload{Content: v.Content, Embeds: []embed{e}, Components: []component{}}
	if len(row.Components) > 0 {
		p.Components = append(p.Components, row)
	}
	return p
}
