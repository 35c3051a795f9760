package views

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fireteam-lab/fireteam/internal/event"
)

// Field is one name/value pair of an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Embed is the card portion of a rendered event.
type Embed struct {
	Title     string    `json:"title,omitempty"`
	Color     int       `json:"color"`
	Fields    []Field   `json:"fields"`
	Footer    string    `json:"footer"`
	Timestamp time.Time `json:"timestamp"`
}

// ButtonStyle follows the chat platform's numeric styles.
type ButtonStyle int

const (
	ButtonPrimary   ButtonStyle = 1
	ButtonSecondary ButtonStyle = 2
	ButtonSuccess   ButtonStyle = 3
	ButtonDanger    ButtonStyle = 4
)

// Button is an interactive control attached to the message.
type Button struct {
	Label    string      `json:"label"`
	Style    ButtonStyle `json:"style"`
	CustomID string      `json:"custom_id"`
}

// RenderedView is the display payload of one event.
type RenderedView struct {
	Content string   `json:"content"`
	Embed   Embed    `json:"embed"`
	Buttons []Button `json:"buttons"`
}

// Equal reports whether two views would display the same.
func (v RenderedView) Equal(o RenderedView) bool {
	return v.Content == o.Content &&
		v.Embed.Title == o.Embed.Title &&
		v.Embed.Color == o.Embed.Color &&
		v.Embed.Footer == o.Embed.Footer &&
		v.Embed.Timestamp.Equal(o.Embed.Timestamp) &&
		slices.Equal(v.Embed.Fields, o.Embed.Fields) &&
		slices.Equal(v.Buttons, o.Buttons)
}

const embedColor = 0xC27C0E

// ComponentID builds the custom id of a roster button, e.g. "join:vog42".
func ComponentID(action string, id event.ID) string {
	return action + ":" + id.String()
}

// Render builds the display payload of e. Equal events render equally.
func Render(e *event.Event) RenderedView {
	start := e.ScheduledTime.Format("Mon Jan 2 3:04 PM MST")
	if e.Recurring {
		start += "\nRecurs weekly"
	}

	fields := []Field{
		{Name: "Activity", Value: e.Activity.String(), Inline: true},
		{Name: "Start Time", Value: start, Inline: true},
		{Name: "Event ID", Value: e.ID.String(), Inline: true},
		{Name: "Description", Value: orNone(e.Description), Inline: false},
	}

	groups := e.ConfirmedGroups()
	if len(groups) == 0 {
		groups = [][]event.GroupMember{nil}
	}
	for i, group := range groups {
		names := make([]string, 0, len(group))
		for _, gm := range group {
			if gm.Alternate {
				names = append(names, fmt.Sprintf("*%s (alt)*", gm.Mention()))
			} else {
				names = append(names, gm.Mention())
			}
		}
		fields = append(fields, Field{
			Name:  fmt.Sprintf("Group %d (%d/%d)", i+1, len(group), e.GroupSize),
			Value: orNone(strings.Join(names, ", ")),
		})
	}

	fields = append(fields,
		Field{Name: "Alternates", Value: mentions(e.ExtraAlternates()), Inline: true},
		Field{Name: "Maybe", Value: mentions(e.Maybe), Inline: true},
	)

	content := ""
	if e.AlertMessage != nil {
		content = *e.AlertMessage
	}

	return RenderedView{
		Content: content,
		Embed: Embed{
			Color:     embedColor,
			Fields:    fields,
			Footer:    fmt.Sprintf("Creator | %s | Your Time", e.Creator.Name),
			Timestamp: e.ScheduledTime.UTC(),
		},
		Buttons: []Button{
			{Label: "Join", Style: ButtonSuccess, CustomID: ComponentID("join", e.ID)},
			{Label: "Leave", Style: ButtonDanger, CustomID: ComponentID("leave", e.ID)},
			{Label: "Alternate", Style: ButtonPrimary, CustomID: ComponentID("alt", e.ID)},
			{Label: "Maybe", Style: ButtonSecondary, CustomID: ComponentID("maybe", e.ID)},
		},
	}
}

func mentions(members []event.Member) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Mention())
	}
	return orNone(strings.Join(names, ", "))
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
