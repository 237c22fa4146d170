// bv is an interactive terminal viewer for files containing a
// contiguous stream of BSON documents.
package main

import (
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devkev/bsonview/internal/bsonfile"
	"github.com/devkev/bsonview/internal/bvlog"
	"github.com/devkev/bsonview/internal/config"
	"github.com/devkev/bsonview/internal/render"
	"github.com/devkev/bsonview/internal/viewer"
)

// Exit codes, matching the classic shell tooling conventions.
const (
	exitInternal  = 1
	exitInputFile = -3
	exitTerm      = -4
)

// exitError carries the process exit code up to main. quiet means the
// message has already been written to stderr.
type exitError struct {
	code  int
	err   error
	quiet bool
}

func (e *exitError) Error() string { return e.err.Error() }

var (
	logPath      string
	logLevelFlag string
	modeFlag     string
	extendedFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "bv <bsonfile>",
	Short:         "Interactive viewer for BSON stream files",
	Long:          "bv pages through a file of concatenated BSON documents with a less(1)-like\ninteraction model: motion keys, marks, literal and query-document search.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: bv <bsonfile>")
			fmt.Fprintln(os.Stderr, "  Exactly one input file is supported.")
			return &exitError{code: exitInputFile, err: errors.New("exactly one input file is supported"), quiet: true}
		}
		return nil
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&logPath, "log", "", "write debug log to this file")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "minimum log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "initial render mode: oneline, pretty, tostring, logs")
	rootCmd.Flags().BoolVar(&extendedFlag, "extended-json", false, "start in the extended (canonical) JSON flavor")
}

// termSizeOpts probes the terminal size up front so the first frame
// has real dimensions.
func termSizeOpts() []tea.ProgramOption {
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	return opts
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := config.Load()
	if err != nil {
		return &exitError{code: exitInputFile, err: err}
	}
	if modeFlag == "" {
		modeFlag = cfg.Mode
	}
	if !cmd.Flags().Changed("extended-json") {
		extendedFlag = cfg.ExtendedJSON
	}
	if logPath == "" {
		logPath = cfg.Log
	}
	if logLevelFlag == "" {
		logLevelFlag = cfg.LogLevel
	}

	logLevel, err := bvlog.ParseLevel(logLevelFlag)
	if err != nil {
		return &exitError{code: exitInputFile, err: err}
	}
	if err := bvlog.Init(logPath, logLevel); err != nil {
		return &exitError{code: exitInputFile, err: fmt.Errorf("unable to open log file: %w", err)}
	}
	defer bvlog.Log.Close()

	mode, err := render.ParseMode(modeFlag)
	if err != nil {
		return &exitError{code: exitInputFile, err: err}
	}
	flavor := render.FlavorStrict
	if extendedFlag {
		flavor = render.FlavorExtended
	}

	f, err := bsonfile.Open(path)
	if err != nil {
		return &exitError{code: exitInputFile, err: err}
	}
	// The mmap lives for the rest of the process; documents borrow
	// from it until exit.

	cache, err := bsonfile.NewCache(f.Data)
	if err != nil {
		return &exitError{code: exitInternal,
			err: fmt.Errorf("unable to read/parse first document from input file '%s', is this a BSON file? (%w)", path, err)}
	}

	bvlog.Log.Info("opened", "path", path, "size", cache.SizeOfFile())

	app := viewer.NewApplication(path, cache, mode, flavor, cfg.LoadBatch)
	opts := termSizeOpts()
	p := tea.NewProgram(app, opts...)

	final, err := p.Run()
	if err != nil {
		return &exitError{code: exitTerm,
			err: fmt.Errorf("unable to run terminal UI: %w (check your $TERM variable, or try a different terminal emulator)", err)}
	}

	// The bubbletea program has restored the terminal by the time Run
	// returns, so it is safe to print diagnostics.
	if aerr := final.(*viewer.Application).Err(); aerr != nil {
		return &exitError{code: exitInternal, err: aerr}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var xerr *exitError
		if errors.As(err, &xerr) {
			if !xerr.quiet {
				fmt.Fprintf(os.Stderr, "bv: Error: %v\n", xerr.err)
			}
			os.Exit(xerr.code)
		}
		fmt.Fprintf(os.Stderr, "bv: Error: %v\n", err)
		os.Exit(exitInternal)
	}
}
