package sketch

import (
	"fmt"
	"strings"
)

// Mode selects which sketch filter is applied to an image.
type Mode int

const (
	ModePencil Mode = iota
	ModeBlackAndWhite
)

// Modes returns all sketch modes in display order.
func Modes() []Mode {
	return []Mode{ModeBlackAndWhite, ModePencil}
}

// String returns the stable identifier used in forms, query strings and config.
func (m Mode) String() string {
	switch m {
	case ModePencil:
		return "pencil"
	case ModeBlackAndWhite:
		return "blackwhite"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Label returns the human readable name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModePencil:
		return "Classic Pencil Sketch"
	case ModeBlackAndWhite:
		return "Black & White Sketch"
	default:
		return m.String()
	}
}

// ParseMode maps an identifier such as "pencil" or "blackwhite" to its Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pencil":
		return ModePencil, nil
	case "blackwhite":
		return ModeBlackAndWhite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
