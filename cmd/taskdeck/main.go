package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/internal/config"
	"github.com/ldi/taskdeck/internal/dashboard"
	"github.com/ldi/taskdeck/internal/logging"
	"github.com/ldi/taskdeck/internal/mcp"
	"github.com/ldi/taskdeck/internal/taxonomy"
	"github.com/ldi/taskdeck/internal/ui"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	a.ctx = ctx
	if err := a.execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every command needs once the root has loaded config.
type app struct {
	ctx    context.Context
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	v       *viper.Viper
	cfgPath string
	yes     bool
	verbose bool

	cfg     *config.Config
	logger  *logrus.Logger
	cleanup func()
	prompt  *actions.PromptConfirmer

	// Replaced in tests.
	runMenu      func() ([]string, error)
	runDashboard func(ctx context.Context, coord *dashboard.Coordinator) error
	serveMCP     func(s *server.MCPServer) error
	opener       client.Opener
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		ctx:          context.Background(),
		in:           in,
		out:          out,
		errOut:       errOut,
		logger:       logrus.New(),
		cleanup:      func() {},
		runMenu:      ui.RunMenu,
		runDashboard: dashboard.Run,
		serveMCP:     mcp.Serve,
		opener:       client.SystemOpener{},
	}
}

func (a *app) execute(args []string) error {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(a.ctx)
}

func (a *app) newRootCmd() *cobra.Command {
	a.v = config.New()

	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Dashboard and command line for the batch task service",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.cleanup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := a.runMenu()
			if err != nil {
				return fmt.Errorf("error running menu: %w", err)
			}
			if len(selected) == 0 {
				return nil
			}
			a.cleanup()
			return a.execute(append(selected, a.forwardedFlags(cmd)...))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", config.DefaultPath, "Path to config file")
	flags.String("base-url", "", "Service base URL")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")
	_ = a.v.BindPFlag("server.base_url", flags.Lookup("base-url"))

	root.AddCommand(
		a.newDashCommand(),
		a.newTasksCommand(),
		a.newBatchesCommand(),
		a.newFilesCommand(),
		a.newMCPCommand(),
	)
	return root
}

// forwardedFlags repeats the root flags the user set so a menu selection
// runs against the same service.
func (a *app) forwardedFlags(cmd *cobra.Command) []string {
	var out []string
	for _, name := range []string{"config", "base-url", "verbose"} {
		f := cmd.Flag(name)
		if f != nil && f.Changed {
			out = append(out, "--"+name+"="+f.Value.String())
		}
	}
	return out
}

// setup loads config and configures logging for the command about to run.
func (a *app) setup(cmd *cobra.Command) error {
	if a.verbose {
		a.v.Set("logger.level", "debug")
	}
	cfg, err := config.Load(a.v, a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// The dashboard owns the terminal, so its logs go to a file. MCP speaks
	// on stdout.
	if cmd.Name() == "mcp" && cfg.Logger.Output == "stdout" {
		cfg.Logger.Output = "stderr"
	}
	cleanup, err := logging.Setup(a.logger, cfg.Logger, cmd.Name() == "dash")
	if err != nil {
		return err
	}
	a.cleanup = cleanup
	a.logger.WithFields(logrus.Fields{
		"command":  cmd.CommandPath(),
		"base_url": cfg.Server.BaseURL,
	}).Debug("config loaded")
	return nil
}

func (a *app) client() *client.Client {
	return client.FromConfig(a.cfg, a.logger, client.WithOpener(a.opener))
}

func (a *app) taxonomy() *taxonomy.Taxonomy {
	return taxonomy.New(a.cfg.UI.Locale)
}

// confirmer asks on the terminal unless --yes was given.
func (a *app) confirmer() actions.Confirmer {
	if a.yes {
		return actions.Always(true)
	}
	if a.prompt == nil {
		a.prompt = actions.NewPromptConfirmer(a.in, a.out)
	}
	return a.prompt
}

// dispatch runs a row action the same way the dashboard does and prints its
// outcome.
func (a *app) dispatch(cmd *cobra.Command, action actions.Action, id string) error {
	tax := a.taxonomy()
	table := actions.Standard(a.client(), a.confirmer(), tax)
	out, err := table.Dispatch(cmd.Context(), action, id)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if out.Declined {
		fmt.Fprintln(w, "Aborted.")
		return nil
	}
	if out.Detail != "" {
		fmt.Fprintln(w, out.Detail)
		return nil
	}
	fmt.Fprintf(w, "✓ %s\n", out.Message)
	return nil
}

func (a *app) addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "Do not ask for confirmation")
}
