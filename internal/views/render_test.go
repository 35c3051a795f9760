package views

import (
	"testing"

	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldValue(t *testing.T, v RenderedView, name string) string {
	t.Helper()
	for _, f := range v.Embed.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	require.Failf(t, "missing field", "no field %q", name)
	return ""
}

func TestRender(t *testing.T) {
	e := testEvent(7, 0)
	e.GroupSize = 2
	e.Recurring = true
	require.NoError(t, e.Join(event.Member{ID: "2", Name: "b"}, event.JoinAlternate, false))
	require.NoError(t, e.Join(event.Member{ID: "3", Name: "m"}, event.JoinMaybe, false))

	v := Render(e)
	assert.Empty(t, v.Content)
	assert.Equal(t, "cust7", fieldValue(t, v, "Event ID"))
	assert.Equal(t, "None", fieldValue(t, v, "Description"))
	assert.Equal(t, "<@1>, *<@2> (alt)*", fieldValue(t, v, "Group 1 (2/2)"))
	assert.Equal(t, "None", fieldValue(t, v, "Alternates"))
	assert.Equal(t, "<@3>", fieldValue(t, v, "Maybe"))
	assert.Contains(t, fieldValue(t, v, "Start Time"), "Recurs weekly")
	assert.Equal(t, "Creator | c | Your Time", v.Embed.Footer)

	require.Len(t, v.Buttons, 4)
	assert.Equal(t, "join:cust7", v.Buttons[0].CustomID)
	assert.Equal(t, "maybe:cust7", v.Buttons[3].CustomID)
}

func TestRender_EmptyGroupAndAlert(t *testing.T) {
	e := testEvent(1, 0)
	require.NoError(t, e.Leave("1"))

	v := Render(e)
	assert.Equal(t, "None", fieldValue(t, v, "Group 1 (0/6)"))

	e.TriggerAlert()
	assert.Empty(t, Render(e).Content)

	full := testEvent(2, 0)
	full.GroupSize = 1
	full.TriggerAlert()
	assert.Equal(t, *full.AlertMessage, Render(full).Content)
	assert.NotEmpty(t, Render(full).Content)
}

func TestRenderedViewEqual(t *testing.T) {
	e := testEvent(1, 0)
	a, b := Render(e), Render(e.Clone())
	assert.True(t, a.Equal(b))

	b.Embed.Fields[0].Value = "x"
	assert.False(t, a.Equal(b))
}
