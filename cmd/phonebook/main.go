package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hongminglow/phonebook/internal/app"
	"github.com/hongminglow/phonebook/internal/config"
	"github.com/hongminglow/phonebook/internal/render"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// cli holds the persistent flags and what PersistentPreRunE derives from them.
type cli struct {
	configPath string
	verbose    bool
	output     string

	cfg    config.Config
	logger *zap.Logger
}

func main() {
	loadLocalEnv()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return render.CodeOK
	}
	if c.output == outputJSON {
		_ = render.Error(stdout, err)
	} else {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return render.CodeFor(err)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "phonebook",
		Short: "Manage contacts kept in a CSV file",
		Long: `phonebook keeps contacts (first name, last name, phone, email, address)
in a CSV file that is rewritten after every change, and appends one line per
change to an audit log.

Phone numbers must look like (###) ###-####. Run without arguments to start
the interactive menu.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: c.runShell,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to a YAML config file (env PHONEBOOK_CONFIG)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVarP(&c.output, "output", "o", outputText, "output format: text or json")

	root.AddCommand(
		c.addCmd(),
		c.listCmd(),
		c.searchCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.importCmd(),
		c.sortCmd(),
		c.shellCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.output != outputText && c.output != outputJSON {
		return fmt.Errorf("unknown output format %q", c.output)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	zcfg := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	if c.verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	c.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger.Debug("configuration loaded",
		zap.String("backend", cfg.Backend),
		zap.String("contacts", cfg.ContactsPath),
		zap.String("audit_log", cfg.AuditLogPath),
	)
	return nil
}

// withApp opens the configured phonebook, runs fn and closes it again.
func (c *cli) withApp(cmd *cobra.Command, fn func(*app.App) error) (err error) {
	a, err := app.New(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

// emit writes data as a JSON envelope or, in text mode, through text.
func (c *cli) emit(cmd *cobra.Command, message string, data any, text func(io.Writer) error) error {
	if c.output == outputJSON {
		return render.JSON(cmd.OutOrStdout(), render.CodeOK, message, data)
	}
	return text(cmd.OutOrStdout())
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
}
