package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	"github.com/yildizm/h5view/internal/session"
)

// modeHelp lists the bindings active in one mode.
type modeHelp struct {
	short []key.Binding
	full  [][]key.Binding
}

func (h modeHelp) ShortHelp() []key.Binding  { return h.short }
func (h modeHelp) FullHelp() [][]key.Binding { return h.full }

// Help returns the bindings of mode for a help view.
func Help(mode session.Mode) help.KeyMap {
	return defaultKeys.HelpFor(mode)
}

// HelpFor returns the bindings km uses in mode.
func (km KeyMap) HelpFor(mode session.Mode) help.KeyMap {
	switch mode.(type) {
	case session.Viewing:
		return modeHelp{
			short: []key.Binding{km.Quit, km.Help, km.Cancel, km.ColsNext, km.FixedNext},
			full: [][]key.Binding{
				{km.Up, km.Down, km.Left, km.Right, km.PageUp, km.PageDown, km.Top, km.Bottom, km.FirstColumn, km.LastColumn},
				{km.SliceUp, km.SliceDown, km.WindowUp, km.WindowDown, km.ColsNext, km.RowsNext, km.FixedNext, km.FixedPrev},
				{km.Dashes, km.Chart, km.Reload, km.Search, km.Cancel, km.Help, km.Quit},
			},
		}
	case session.Searching:
		return modeHelp{
			short: []key.Binding{km.Confirm, km.Cancel},
			full:  [][]key.Binding{{km.Confirm, km.Cancel, km.Backspace, km.ClearInput, km.ForceQuit}},
		}
	case session.ErrorMode:
		return modeHelp{
			short: []key.Binding{km.Cancel},
			full:  [][]key.Binding{{km.Cancel, km.ForceQuit}},
		}
	}
	return modeHelp{
		short: []key.Binding{km.Quit, km.Help, km.Search, km.Open},
		full: [][]key.Binding{
			{km.Up, km.Down, km.PageUp, km.PageDown, km.Top, km.Bottom},
			{km.Open, km.Search, km.Cancel, km.Help, km.Quit},
		},
	}
}
