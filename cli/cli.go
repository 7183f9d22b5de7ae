package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"weather/config"
	"weather/controller"
	"weather/history"
	"weather/render"
)

type cli struct {
	defaults   []byte
	build      BuildFunc
	configPath string
	verbose    bool
	noColor    bool
}

// New builds the weather command. defaults is the embedded config.yaml and
// build creates the services once the configuration is known.
func New(defaults []byte, build BuildFunc) (*cobra.Command, error) {
	if build == nil {
		return nil, errors.New("cli: nil build func")
	}

	c := &cli{defaults: defaults, build: build}

	cmd := &cobra.Command{
		Use:          "weather",
		Short:        "Terminal client for looking up the weather",
		Long:         "Interactive weather lookup. Type a city name to get suggestions, /help lists the commands.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         c.run(c.session),
	}
	cmd.SetOut(os.Stdout)

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML file overriding the built-in configuration")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(c.nowCmd(), c.searchCmd(), c.historyCmd(), c.themeCmd())

	return cmd, nil
}

type runFunc func(cmd *cobra.Command, args []string, app *App) error

// run loads the configuration and services for one command invocation and
// releases them afterwards.
func (c *cli) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(c.defaults, c.configPath)
		if err != nil {
			return err
		}

		level := cfg.Log.SlogLevel()
		if c.verbose {
			level = slog.LevelDebug
		}
		log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		app, err := c.build(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Error("close storage", "err", err)
			}
		}()

		return fn(cmd, args, app)
	}
}

func (c *cli) nowCmd() *cobra.Command {
	var tab string

	cmd := &cobra.Command{
		Use:   "now [city]",
		Short: "Show the weather for a city, or for the current position, and exit",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, app *App) error {
			active, ok := render.ParseTab(tab)
			if !ok {
				return fmt.Errorf("unknown tab %q", tab)
			}

			view := render.NewView()
			view.Color = c.color(cmd.OutOrStdout())

			ctrl := newController(app, view, nil, history.ConfirmFunc(func(string) bool { return false }))
			stop := startLoop(cmd.Context(), ctrl)
			defer stop()

			if len(args) == 1 {
				ctrl.StartCity(args[0])
			} else {
				ctrl.Start()
			}
			ctrl.SwitchTab(active)
			ctrl.Wait()

			if msg := ctrl.State().Error; msg != "" {
				return errors.New(msg)
			}

			return ctrl.Draw(cmd.OutOrStdout())
		}),
	}

	cmd.Flags().StringVar(&tab, "tab", string(render.TabHourly), "forecast to show: hourly, daily or history")

	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List places matching a name",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, app *App) error {
			locations, err := app.Forecaster.Suggest(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(locations) == 0 {
				cmd.Println("No matches")
				return nil
			}

			for i, l := range locations {
				cmd.Printf("%d. %s (%.4f, %.4f)\n", i+1, l.Label(), l.Latitude, l.Longitude)
			}

			return nil
		}),
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lookups",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string, app *App) error {
			if days <= 0 {
				days = app.Config.App.HistoryDays
			}

			app.History.Load(cmd.Context())

			view := render.NewView()
			render.History(view, app.History.Recent(days))
			for _, line := range view.History.Lines() {
				cmd.Println(line)
			}

			return nil
		}),
	}
	cmd.Flags().IntVar(&days, "days", 0, "how many days back to show (default from config)")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded lookups",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, _ []string, app *App) error {
			confirm := history.ConfirmFunc(func(prompt string) bool {
				if yes {
					return true
				}

				cmd.Printf("%s [y/N] ", prompt)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				return isYes(line)
			})

			app.History.Load(cmd.Context())

			cleared, err := app.History.Clear(cmd.Context(), confirm)
			if err != nil {
				return err
			}

			if cleared {
				cmd.Println("History cleared")
			} else {
				cmd.Println("History kept")
			}

			return nil
		}),
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(clearCmd)

	return cmd
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(render.ThemeLight), string(render.ThemeDark)},
		RunE: c.run(func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()

			if len(args) == 1 {
				theme := render.Theme(args[0])
				if theme != render.ThemeLight && theme != render.ThemeDark {
					return fmt.Errorf("unknown theme %q", args[0])
				}

				if err := app.Settings.Set(ctx, controller.ThemeKey, string(theme)); err != nil {
					return fmt.Errorf("save theme: %w", err)
				}
			}

			saved, ok, err := app.Settings.Get(ctx, controller.ThemeKey)
			if err != nil {
				return fmt.Errorf("load theme: %w", err)
			}

			theme := render.ThemeLight
			if ok {
				theme = render.ParseTheme(saved)
			}
			cmd.Println(theme)

			return nil
		}),
	}
}

func newController(app *App, view *render.View, out io.Writer, confirmer history.Confirmer) *controller.Controller {
	return controller.New(controller.Options{
		Forecaster:  app.Forecaster,
		Locator:     app.Locator,
		History:     app.History,
		Settings:    app.Settings,
		View:        view,
		Confirmer:   confirmer,
		Out:         out,
		Debounce:    app.Config.App.Debounce,
		DefaultCity: app.Config.App.DefaultCity,
		HistoryDays: app.Config.App.HistoryDays,
		Log:         app.Log,
	})
}

// startLoop runs the controller loop until the returned stop is called.
func startLoop(ctx context.Context, ctrl *controller.Controller) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()

	return func() {
		cancel()
		<-done
	}
}

func (c *cli) color(w io.Writer) bool {
	if c.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}

	return isTerminal(w)
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
