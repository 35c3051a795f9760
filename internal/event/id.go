package event

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/fireteam-lab/fireteam/internal/activity"
)

// MaxSeq is the largest sequence number an id can carry. Sequence 0 is never used.
const MaxSeq = 255

// ID identifies an event within a guild. Its text form is the activity prefix
// followed by the sequence number, e.g. "vog42".
type ID struct {
	Activity activity.Kind
	Seq      uint8
}

// NewID builds an id without validating the sequence.
func NewID(kind activity.Kind, seq uint8) ID {
	return ID{Activity: kind, Seq: seq}
}

func (id ID) String() string {
	return id.Activity.Prefix() + strconv.Itoa(int(id.Seq))
}

// IsZero reports whether id was never assigned.
func (id ID) IsZero() bool { return id.Seq == 0 }

// Compare orders ids by catalog position, then sequence.
func (id ID) Compare(other ID) int {
	if c := cmp.Compare(id.Activity, other.Activity); c != 0 {
		return c
	}
	return cmp.Compare(id.Seq, other.Seq)
}

// ParseID parses the text form of an id. The prefix is case-insensitive.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	split := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if split <= 0 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	kind, err := activity.FromPrefix(s[:split])
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	n, err := strconv.ParseUint(s[split:], 10, 8)
	if err != nil || n == 0 {
		return ID{}, fmt.Errorf("%w: %q: sequence must be 1-%d", ErrInvalidID, s, MaxSeq)
	}
	return ID{Activity: kind, Seq: uint8(n)}, nil
}

func (id ID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: zero id", ErrInvalidID)
	}
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// nextSeq returns the successor of n, wrapping past MaxSeq back to 1.
func nextSeq(n uint8) uint8 {
	if n == MaxSeq {
		return 1
	}
	return n + 1
}

// FindFreeSeq scans forward from start (inclusive, wrapping) for a sequence for
// which taken returns false. A start of 0 is treated as 1.
func FindFreeSeq(start uint8, taken func(seq uint8) bool) (uint8, bool) {
	if start == 0 {
		start = 1
	}
	seq := start
	for {
		if !taken(seq) {
			return seq, true
		}
		seq = nextSeq(seq)
		if seq == start {
			return 0, false
		}
	}
}

// NextSeq is the cursor value that follows an allocation of seq.
func NextSeq(seq uint8) uint8 { return nextSeq(seq) }
