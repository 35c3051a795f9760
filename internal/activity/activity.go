package activity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned when a prefix, name or type command does not match the catalog.
var ErrUnknown = errors.New("unknown activity")

// Type groups activities for channel filtering.
type Type uint8

const (
	TypeRaid Type = iota
	TypeDungeon
	TypeCrucible
	TypeGambit
	TypeExoticQuest
	TypeSeasonal
	TypeOther
	TypeCustom
)

var typeInfo = []struct {
	name    string
	command string
}{
	TypeRaid:        {"Raid", "raid"},
	TypeDungeon:     {"Dungeon", "dungeon"},
	TypeCrucible:    {"Crucible", "pvp"},
	TypeGambit:      {"Gambit", "gambit"},
	TypeExoticQuest: {"Exotic Quest", "exotic"},
	TypeSeasonal:    {"Seasonal", "seasonal"},
	TypeOther:       {"Other", "other"},
	TypeCustom:      {"Custom", "custom"},
}

// Types lists every activity type in display order.
func Types() []Type {
	out := make([]Type, len(typeInfo))
	for i := range typeInfo {
		out[i] = Type(i)
	}
	return out
}

func (t Type) String() string {
	if int(t) >= len(typeInfo) {
		return fmt.Sprintf("Type(%d)", t)
	}
	return typeInfo[t].name
}

// Command is the short lower-case name used in config and commands.
func (t Type) Command() string {
	if int(t) >= len(typeInfo) {
		return ""
	}
	return typeInfo[t].command
}

// ParseType resolves a type by its command name.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range typeInfo {
		if info.command == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w type %q", ErrUnknown, s)
}

// Kind is one entry of the activity catalog. The zero value is VaultOfGlass.
type Kind uint8

const (
	VaultOfGlass Kind = iota
	DeepStoneCrypt
	GardenOfSalvation
	LastWish
	Prophecy
	PitOfHeresy
	ShatteredThrone
	IronBanner
	TrialsOfOsiris
	Quickplay
	Competitive
	Gambit
	Harbinger
	Presage
	Override
	WrathbornHunt
	Nightfall
	Custom
)

type kindInfo struct {
	name      string
	prefix    string
	typ       Type
	groupSize int
}

var catalog = []kindInfo{
	VaultOfGlass:      {"Vault of Glass", "vog", TypeRaid, 6},
	DeepStoneCrypt:    {"Deep Stone Crypt", "dsc", TypeRaid, 6},
	GardenOfSalvation: {"Garden of Salvation", "gos", TypeRaid, 6},
	LastWish:          {"Last Wish", "lw", TypeRaid, 6},
	Prophecy:          {"Prophecy", "proph", TypeDungeon, 3},
	PitOfHeresy:       {"Pit of Heresy", "pit", TypeDungeon, 3},
	ShatteredThrone:   {"Shattered Throne", "throne", TypeDungeon, 3},
	IronBanner:        {"Iron Banner", "ib", TypeCrucible, 6},
	TrialsOfOsiris:    {"Trials of Osiris", "trials", TypeCrucible, 3},
	Quickplay:         {"Quickplay", "quick", TypeCrucible, 6},
	Competitive:       {"Competitive", "comp", TypeCrucible, 3},
	Gambit:            {"Gambit", "gambit", TypeGambit, 4},
	Harbinger:         {"Harbinger", "harb", TypeExoticQuest, 3},
	Presage:           {"Presage", "pres", TypeExoticQuest, 2},
	Override:          {"Override", "override", TypeSeasonal, 6},
	WrathbornHunt:     {"Wrathborn Hunt", "hunt", TypeSeasonal, 3},
	Nightfall:         {"Nightfall", "nf", TypeOther, 3},
	Custom:            {"Custom", "cust", TypeCustom, 6},
}

// Kinds lists the full catalog in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(catalog))
	for i := range catalog {
		out[i] = Kind(i)
	}
	return out
}

// Valid reports whether k is a catalog entry.
func (k Kind) Valid() bool { return int(k) < len(catalog) }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return catalog[k].name
}

// Prefix is the id prefix, e.g. "vog".
func (k Kind) Prefix() string {
	if !k.Valid() {
		return ""
	}
	return catalog[k].prefix
}

func (k Kind) Type() Type {
	if !k.Valid() {
		return TypeOther
	}
	return catalog[k].typ
}

// DefaultGroupSize is the party size new events start with.
func (k Kind) DefaultGroupSize() int {
	if !k.Valid() {
		return 1
	}
	return catalog[k].groupSize
}

// FromPrefix resolves a kind by id prefix. Matching is case-insensitive.
func FromPrefix(prefix string) (Kind, error) {
	prefix = strings.ToLower(prefix)
	for i, info := range catalog {
		if info.prefix == prefix {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w prefix %q", ErrUnknown, prefix)
}

// Parse accepts either a prefix ("vog") or a display name ("Vault of Glass").
func Parse(s string) (Kind, error) {
	if k, err := FromPrefix(strings.TrimSpace(s)); err == nil {
		return k, nil
	}
	for i, info := range catalog {
		if strings.EqualFold(info.name, strings.TrimSpace(s)) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknown, s)
}

// MarshalText encodes the kind as its prefix.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w kind %d", ErrUnknown, k)
	}
	return []byte(k.Prefix()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := FromPrefix(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Filter selects the activity types a channel shows. An empty filter admits everything.
type Filter []Type

// Admits reports whether the filter allows kind.
func (f Filter) Admits(k Kind) bool {
	if len(f) == 0 {
		return true
	}
	for _, t := range f {
		if k.Type() == t {
			return true
		}
	}
	return false
}
