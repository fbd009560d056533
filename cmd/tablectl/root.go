package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the values resolved by the root command to its subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configDir string
	dataDir   string
	jsonOut   bool
	verbose   bool

	cfg    *viper.Viper
	logger *slog.Logger
}

// userError marks failures caused by invalid input.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	return exitSysError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "tablectl",
		Short:         "Browse vulnerability tables with persistent filters, sorting and paging",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.tablectl)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory for persisted table state")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log state loads and saves to stderr")

	root.AddCommand(newListCmd(a))
	root.AddCommand(newStateCmd(a))
	return root
}

func (a *app) init() error {
	configDir := a.configDir
	if configDir == "" {
		configDir = os.Getenv(envConfigDir)
	}
	if configDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		configDir = filepath.Join(cwd, defaultConfigDirName)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.dataDir == "" {
		a.dataDir = cfg.GetString(cfgKeyDataDir)
	}
	if a.dataDir == "" {
		a.dataDir = configDir
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}
