package preview

import (
	"encoding/json"
	"strings"
)

// Mode names a fixed preview size preset.
type Mode string

const (
	ModeThumbnail Mode = "thumbnail"
	ModeBanner    Mode = "banner"
	ModeSquare    Mode = "square"
	ModeStory     Mode = "story"
)

type modeSpec struct {
	mode   Mode
	label  string
	width  int
	height int
}

// modeTable is the canonical display order.
var modeTable = []modeSpec{
	{ModeThumbnail, "Thumbnail", 400, 210},
	{ModeBanner, "Banner (1:1.91)", 1200, 630},
	{ModeSquare, "Square (1:1)", 1200, 1200},
	{ModeStory, "Story (9:16)", 1080, 1920},
}

// Modes returns every known mode in display order.
func Modes() []Mode {
	out := make([]Mode, len(modeTable))
	for i, row := range modeTable {
		out[i] = row.mode
	}
	return out
}

// ParseMode resolves a mode name, ignoring case and surrounding space.
func ParseMode(name string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	return m, m.index() >= 0
}

func (m Mode) index() int {
	for i, row := range modeTable {
		if row.mode == m {
			return i
		}
	}
	return -1
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m.index() >= 0 }

// Dimensions returns the frame size in CSS pixels.
func (m Mode) Dimensions() (width, height int) {
	if i := m.index(); i >= 0 {
		return modeTable[i].width, modeTable[i].height
	}
	return 0, 0
}

// Label is the human readable button text.
func (m Mode) Label() string {
	if i := m.index(); i >= 0 {
		return modeTable[i].label
	}
	return string(m)
}

// ModeSet is an immutable set of active modes.
type ModeSet uint8

// NewModeSet returns a set containing the given known modes.
func NewModeSet(modes ...Mode) ModeSet {
	var s ModeSet
	for _, m := range modes {
		s = s.With(m)
	}
	return s
}

// ParseModeSet builds a set from mode names and reports the names it did not recognise.
func ParseModeSet(names []string) (ModeSet, []string) {
	var (
		s       ModeSet
		unknown []string
	)
	for _, name := range names {
		m, ok := ParseMode(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		s = s.With(m)
	}
	return s, unknown
}

func bit(m Mode) ModeSet {
	i := m.index()
	if i < 0 {
		return 0
	}
	return 1 << uint(i)
}

// Has reports whether m is active.
func (s ModeSet) Has(m Mode) bool {
	b := bit(m)
	return b != 0 && s&b != 0
}

// With returns s with m added.
func (s ModeSet) With(m Mode) ModeSet { return s | bit(m) }

// Without returns s with m removed.
func (s ModeSet) Without(m Mode) ModeSet { return s &^ bit(m) }

// Toggle flips m. Toggling the same mode twice yields the original set.
func (s ModeSet) Toggle(m Mode) ModeSet { return s ^ bit(m) }

// Empty reports whether no mode is active.
func (s ModeSet) Empty() bool { return s == 0 }

// Len reports the number of active modes.
func (s ModeSet) Len() int {
	n := 0
	for _, row := range modeTable {
		if s.Has(row.mode) {
			n++
		}
	}
	return n
}

// Modes lists the active modes in display order.
func (s ModeSet) Modes() []Mode {
	var out []Mode
	for _, row := range modeTable {
		if s.Has(row.mode) {
			out = append(out, row.mode)
		}
	}
	return out
}

// Strings lists the active mode names in display order.
func (s ModeSet) Strings() []string {
	modes := s.Modes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

// String implements fmt.Stringer.
func (s ModeSet) String() string { return strings.Join(s.Strings(), ",") }

// MarshalJSON encodes the set as an array of mode names.
func (s ModeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(append([]string{}, s.Strings()...))
}

// UnmarshalJSON decodes an array of mode names, dropping unknown ones.
func (s *ModeSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s, _ = ParseModeSet(names)
	return nil
}
