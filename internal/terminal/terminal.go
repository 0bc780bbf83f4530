// Package terminal connects a session to a real terminal through
// bubbletea. It forwards input as events and shows the frames it is given;
// the session itself never touches terminal primitives.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/events"
	"github.com/yildizm/h5view/internal/render"
)

// Sink receives input events.
type Sink interface {
	Push(ev events.Event) bool
}

// Options configures a Terminal.
type Options struct {
	AltScreen bool
	Mouse     bool
	Styles    render.Styles
	// Input and Output replace stdin and stdout when set. A nil Input with
	// NoInput set disables reading input.
	Input   io.Reader
	Output  io.Writer
	NoInput bool
}

// Terminal draws frames and produces input events while Run is active.
type Terminal struct {
	opts    Options
	program *tea.Program
}

// New creates a terminal that is acquired by Run.
func New(opts Options) *Terminal {
	return &Terminal{opts: opts}
}

// Check reports whether stdin and stdout are terminals.
func Check() error {
	return CheckFiles(os.Stdin, os.Stdout)
}

// CheckFiles reports whether in and out are terminals.
func CheckFiles(in, out *os.File) error {
	for _, f := range []*os.File{in, out} {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return errors.Newf(errors.TerminalInitFailure, f.Name(), "not a terminal")
		}
	}
	return nil
}

// Draw shows f. It does nothing outside Run.
func (t *Terminal) Draw(f render.Frame) {
	if t.program != nil {
		t.program.Send(frameMsg{frame: f})
	}
}

// Run acquires the terminal, forwards its input to sink and calls session.
// The terminal is restored when session returns, when it panics and when
// the program stops on its own; in the last case session's context is
// cancelled.
func (t *Terminal) Run(ctx context.Context, sink Sink, session func(context.Context) error) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.program = tea.NewProgram(&model{sink: sink, styles: t.opts.Styles}, t.programOptions(ctx)...)
	done := make(chan error, 1)
	go func() {
		_, err := t.program.Run()
		cancel()
		done <- err
	}()

	defer func() {
		if r := recover(); r != nil {
			t.program.Kill()
			<-done
			panic(r)
		}
	}()

	sessionErr := session(ctx)
	t.program.Quit()
	progErr := <-done

	if sessionErr != nil {
		return sessionErr
	}
	if progErr != nil && !errors.Is(progErr, tea.ErrProgramKilled) {
		return errors.New(errors.TerminalInitFailure, "terminal", progErr)
	}
	return nil
}

func (t *Terminal) programOptions(ctx context.Context) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithoutSignalHandler()}
	if t.opts.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if t.opts.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	if t.opts.Input != nil || t.opts.NoInput {
		opts = append(opts, tea.WithInput(t.opts.Input))
	}
	if t.opts.Output != nil {
		opts = append(opts, tea.WithOutput(t.opts.Output))
	}
	return opts
}

type frameMsg struct {
	frame render.Frame
}

// model is the bubbletea side: it owns no session state, only the last
// drawn view.
type model struct {
	sink   Sink
	styles render.Styles
	view   string
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.sink.Push(events.Key{Code: msg.String()})
	case tea.MouseMsg:
		if ev, ok := mouseEvent(msg); ok {
			m.sink.Push(ev)
		}
	case tea.WindowSizeMsg:
		m.sink.Push(events.Resize{Width: msg.Width, Height: msg.Height})
	case frameMsg:
		m.view = msg.frame.View(m.styles)
	}
	return m, nil
}

func (m *model) View() string {
	return m.view
}

func mouseEvent(msg tea.MouseMsg) (events.Mouse, bool) {
	ev := events.Mouse{X: msg.X, Y: msg.Y}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		ev.Action = events.MouseWheelUp
	case msg.Button == tea.MouseButtonWheelDown:
		ev.Action = events.MouseWheelDown
	case msg.Action == tea.MouseActionPress:
		ev.Action = events.MousePress
	case msg.Action == tea.MouseActionRelease:
		ev.Action = events.MouseRelease
	case msg.Action == tea.MouseActionMotion:
		ev.Action = events.MouseMotion
	default:
		return events.Mouse{}, false
	}
	return ev, true
}

// String describes the terminal setup for logs.
func (o Options) String() string {
	return fmt.Sprintf("altscreen=%t mouse=%t", o.AltScreen, o.Mouse)
}
