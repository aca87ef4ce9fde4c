// Package cli implements the imagectl command, an operator front end that
// drives images through the same boundary contract as C callers.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/image-handle/internal/boundary"
	"github.com/ironsheep/image-handle/internal/config"
	"github.com/ironsheep/image-handle/internal/handle"
)

// ResultError reports a boundary call that did not return Success.
type ResultError struct {
	Op     string
	Result boundary.Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Result)
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	version    string
	configPath string

	cfg *config.Config
	log *zap.Logger
	bnd *boundary.Boundary
}

// NewRootCommand builds the imagectl command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:           "imagectl",
		Short:         "Load, transform and save images through the image handle library",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"YAML config file (default: $"+config.EnvConfigFile+")")

	root.AddCommand(
		newInfoCommand(a),
		newApplyCommand(a),
		newCompareCommand(a),
		newVersionCommand(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	handle.SetLogger(log.Named("handle"))
	boundary.SetLogger(log.Named("boundary"))

	a.cfg = cfg
	a.log = log
	a.bnd = boundary.New(handle.NewManager(
		handle.WithJPEGQuality(cfg.JPEGQuality),
		handle.WithMaxBufferBytes(cfg.MaxBufferBytes),
	))
	return nil
}

func (a *app) teardown() {
	if a.bnd != nil {
		a.bnd.Manager().Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// Execute runs imagectl and returns the process exit code: the boundary
// result code for a failed image operation, 1 for anything else.
func Execute(version string, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(version)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var re *ResultError
		if errors.As(err, &re) && re.Result != boundary.Success {
			return int(re.Result)
		}
		return 1
	}
	return 0
}

// Main is Execute wired to the process.
func Main(version string) {
	os.Exit(Execute(version, os.Args[1:], os.Stdout, os.Stderr))
}
