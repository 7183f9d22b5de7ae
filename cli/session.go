package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"weather/controller"
	"weather/history"
	"weather/render"
)

const sessionHelp = `Type a city name to see suggestions, an empty line searches right away.
  /search [text]   search now
  /pick N          show the weather for suggestion N
  /dismiss         hide the suggestions
  /locate          show the weather at your position
  /tab NAME        switch to hourly, daily or history
  /open N          show the weather for history row N
  /clear           delete the history
  /theme           toggle light and dark theme
  /help            this text
  /quit            exit`

var errQuit = errors.New("quit")

type session struct {
	ctx   context.Context
	ctrl  *controller.Controller
	lines <-chan string
	out   io.Writer
	// serial makes every command wait for the lookups it started, so piped
	// input behaves the same on every run.
	serial bool
}

func (c *cli) session(cmd *cobra.Command, _ []string, app *App) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := &lockedWriter{w: cmd.OutOrStdout()}

	s := &session{
		ctx:    ctx,
		lines:  readLines(ctx, cmd.InOrStdin()),
		out:    out,
		serial: !isTerminal(cmd.InOrStdin()),
	}

	view := render.NewView()
	view.Color = c.color(cmd.OutOrStdout())

	s.ctrl = newController(app, view, out, history.ConfirmFunc(s.confirm))
	stop := startLoop(ctx, s.ctrl)
	defer stop()

	fmt.Fprintln(out, "Type /help for commands.")
	s.ctrl.Start()
	s.settle()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-s.lines:
			if !ok {
				s.ctrl.Wait()
				return nil
			}

			err := s.handle(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(out, err)
			}
			s.settle()
		}
	}
}

func (s *session) handle(line string) error {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		s.ctrl.Submit()
		return nil
	case !strings.HasPrefix(trimmed, "/"):
		s.ctrl.Input(line)
		return nil
	}

	name, arg, _ := strings.Cut(trimmed[1:], " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "search", "s":
		if arg == "" {
			s.ctrl.Submit()
		} else {
			s.ctrl.Search(arg)
		}
	case "pick", "p":
		i, err := itemIndex(arg)
		if err != nil {
			return err
		}
		return s.ctrl.Select(i)
	case "dismiss":
		s.ctrl.Dismiss()
	case "locate":
		s.ctrl.Locate()
	case "tab", "t":
		tab, ok := render.ParseTab(arg)
		if !ok {
			return fmt.Errorf("unknown tab %q, use hourly, daily or history", arg)
		}
		s.ctrl.SwitchTab(tab)
	case "open", "o":
		i, err := itemIndex(arg)
		if err != nil {
			return err
		}
		return s.ctrl.OpenHistory(i)
	case "clear":
		cleared, err := s.ctrl.ClearHistory()
		if err != nil {
			return err
		}
		if !cleared {
			fmt.Fprintln(s.out, "History kept")
		}
	case "theme":
		fmt.Fprintf(s.out, "Theme: %s\n", s.ctrl.ToggleTheme())
	case "help", "h", "?":
		fmt.Fprintln(s.out, sessionHelp)
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command /%s, type /help", name)
	}

	return nil
}

// confirm runs on the controller loop while handle is blocked, so it is the
// only reader of lines at that time.
func (s *session) confirm(prompt string) bool {
	fmt.Fprintf(s.out, "%s [y/N] ", prompt)

	select {
	case line, ok := <-s.lines:
		return ok && isYes(line)
	case <-s.ctx.Done():
		return false
	}
}

func (s *session) settle() {
	if s.serial {
		s.ctrl.Wait()
	}
}

func itemIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a row number, got %q", arg)
	}

	return n - 1, nil
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
