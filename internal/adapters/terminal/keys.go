package terminal

import "github.com/gdamore/tcell/v2"

// Command is a player request from the keyboard.
type Command int

const (
	CmdNone Command = iota
	CmdStart
	CmdReset
	CmdQuit
	CmdPopper
	CmdDance
	CmdNext
)

// CommandFor maps a key press to a command.
func CommandFor(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return CmdQuit
	case tcell.KeyEnter:
		return CmdStart
	case tcell.KeyRune:
	default:
		return CmdNone
	}
	switch ev.Rune() {
	case ' ':
		return CmdStart
	case 'r', 'R':
		return CmdReset
	case 'q', 'Q':
		return CmdQuit
	case 'p', 'P':
		return CmdPopper
	case 'd', 'D':
		return CmdDance
	case 'n', 'N':
		return CmdNext
	}
	return CmdNone
}
