package guild

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"gopkg.in/yaml.v3"
)

// ChannelLayout is one event channel in the layout file.
type ChannelLayout struct {
	ID string `yaml:"id"`
	// Types lists activity type commands ("raid", "pvp", ...). Empty shows every event.
	Types []string `yaml:"types"`
}

// GuildLayout is the channel layout of one guild.
type GuildLayout struct {
	Channels []ChannelLayout `yaml:"channels"`
}

// Layout maps guilds to their event channels. Guilds without an entry
// use Default.
type Layout struct {
	Default GuildLayout            `yaml:"default"`
	Guilds  map[string]GuildLayout `yaml:"guilds"`
}

// LoadLayout reads a layout file. An empty path yields an empty layout.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return &Layout{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guild layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes and validates layout YAML.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse guild layout: %w", err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) validate() error {
	check := func(where string, g GuildLayout) error {
		seen := map[string]bool{}
		for _, ch := range g.Channels {
			if ch.ID == "" {
				return fmt.Errorf("%s: channel id is required", where)
			}
			if seen[ch.ID] {
				return fmt.Errorf("%s: duplicate channel %q", where, ch.ID)
			}
			seen[ch.ID] = true
			if _, err := parseTypes(ch.Types); err != nil {
				return fmt.Errorf("%s: channel %q: %w", where, ch.ID, err)
			}
		}
		return nil
	}
	if err := check("default", l.Default); err != nil {
		return err
	}
	for id, g := range l.Guilds {
		if err := check("guild "+id, g); err != nil {
			return err
		}
	}
	return nil
}

// Channels returns the channel specs of guildID.
func (l *Layout) Channels(guildID string) []eventmgr.ChannelSpec {
	g, ok := l.Guilds[guildID]
	if !ok {
		g = l.Default
	}
	specs := make([]eventmgr.ChannelSpec, 0, len(g.Channels))
	for _, ch := range g.Channels {
		types, _ := parseTypes(ch.Types)
		specs = append(specs, eventmgr.ChannelSpec{ID: ch.ID, Types: types})
	}
	return specs
}

func parseTypes(names []string) (activity.Filter, error) {
	var f activity.Filter
	for _, name := range names {
		t, err := activity.ParseType(name)
		if err != nil {
			return nil, err
		}
		f = append(f, t)
	}
	return f, nil
}
