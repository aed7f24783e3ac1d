package session

// Command is a discrete editor action bound to a key.
type Command int

const (
	CommandBlur Command = iota
	CommandInpaint
	CommandClearMask
	CommandReset
	CommandGrowBrush
	CommandShrinkBrush
	CommandSave
	CommandQuit
)

var commandNames = map[Command]string{
	CommandBlur:        "blur",
	CommandInpaint:     "inpaint",
	CommandClearMask:   "clear mask",
	CommandReset:       "reset image",
	CommandGrowBrush:   "grow brush",
	CommandShrinkBrush: "shrink brush",
	CommandSave:        "save",
	CommandQuit:        "quit",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

var keyBindings = map[rune]Command{
	' ': CommandBlur,
	'i': CommandInpaint,
	'c': CommandClearMask,
	'r': CommandReset,
	's': CommandSave,
	'+': CommandGrowBrush,
	'=': CommandGrowBrush,
	'-': CommandShrinkBrush,
	'_': CommandShrinkBrush,
	'q': CommandQuit,
}

// CommandForKey maps a typed character to its command. Letters match in
// either case.
func CommandForKey(r rune) (Command, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	cmd, ok := keyBindings[r]
	return cmd, ok
}

// Help is the key reference printed at startup.
const Help = `
==========================================================
 REGION OBLITERATOR
==========================================================
Paint with the mouse over the area to blur or remove.

KEYS:
  SPACE  - Blur selected region
  I      - Inpaint (remove object)
  C      - Clear mask
  R      - Reset image
  S      - Save output
  + / -  - Change brush size
  Q      - Quit
==========================================================
`
