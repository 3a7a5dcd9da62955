package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/denysmiand/formula"
	"github.com/denysmiand/formula/config"
	"github.com/denysmiand/formula/internal/tui"
	"github.com/denysmiand/formula/suggest"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// eval flags
	inname  string
	verb    string
	echo    bool
	lookup  bool
	timeout time.Duration

	// edit flags
	metricsAddr string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formula",
	Short: "Build a formula one tag at a time",
	Long: `formula builds an arithmetic formula from typed tokens and accepted
suggestions. Every operator has the same strength and applies left to right,
so "2 + 3 * 4" is 20. Only brackets group.

Run without arguments to start the interactive editor.`,
	SilenceUsage: true,
	RunE:         runEdit,
}

var evalCmd = &cobra.Command{
	Use:   "eval [token...]",
	Short: "Type tokens into a formula and print the result",
	Long: `Each token is typed into the formula and committed, exactly as if
entered in the editor. Tokens the grammar rejects are dropped silently.
With no arguments, tokens are read from standard input or --in.

Example:
  formula eval 2 + 3 '*' 4
  formula eval - 5 + 2^10`,
	PersistentPreRunE: initLogger,
	RunE:              runEval,
}

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Start the interactive editor",
	RunE:  runEdit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")

	evalCmd.Flags().StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	evalCmd.Flags().StringVar(&verb, "fmt", "%g", "result formatting string")
	evalCmd.Flags().BoolVar(&echo, "echo", false, "print the formula before the result")
	evalCmd.Flags().BoolVar(&lookup, "suggest", false, "look up tokens that are not numbers or operators and take the first suggestion")
	evalCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall lookup deadline")

	for _, c := range []*cobra.Command{rootCmd, editCmd} {
		c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve lookup metrics on this address")
	}

	// Stop flag parsing at the first token so that formulas like "2 - 1"
	// need no "--".
	evalCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(evalCmd, editCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// initLogger builds the stderr logger for non-interactive commands.
func initLogger(cmd *cobra.Command, args []string) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// fileLogger builds the logger for the interactive editor, which must not
// write to the terminal.
func fileLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	opts := []formula.EditorOption{
		formula.WithLogger(logger),
		formula.WithEval(formula.Prec(cfg.Precision)),
	}
	var client *suggest.Client
	if lookup {
		if err := cfg.Validate(); err != nil {
			return err
		}
		client, err = suggest.New(cfg.SuggestConfig(), suggest.Logger(logger))
		if err != nil {
			return err
		}
	}
	ed := formula.NewEditor(nil, opts...)

	tokens := args
	if len(tokens) == 0 {
		in, err := infile(inname)
		if err != nil {
			return err
		}
		defer in.Close()
		tokens, err = readTokens(in)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	for _, tok := range tokens {
		snap := ed.Change(tok)
		if snap.Buffer == "" {
			continue
		}
		before := snap.Version
		if snap = ed.Accept(); snap.Version != before || client == nil {
			continue
		}
		if r := client.Lookup(ctx, tok); len(r) > 0 {
			ed.AcceptSuggestion(r[0])
		} else {
			logger.Debug("token dropped", zap.String("token", tok))
		}
	}

	snap := ed.Snapshot()
	out := cmd.OutOrStdout()
	if echo {
		fmt.Fprintf(out, "%s : ", formula.Format(snap.Tags))
	}
	r := ed.Result()
	if r == nil {
		fmt.Fprintln(out, formula.FormatValue(r))
		return nil
	}
	fmt.Fprintf(out, verb+"\n", r)
	return nil
}

func infile(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func readTokens(r io.Reader) ([]string, error) {
	var tokens []string
	scan := bufio.NewScanner(r)
	scan.Split(bufio.ScanWords)
	for scan.Scan() {
		tokens = append(tokens, scan.Text())
	}
	return tokens, scan.Err()
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := fileLogger(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	client, err := suggest.New(cfg.SuggestConfig(), suggest.Logger(log), suggest.Registerer(reg))
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	var p *tea.Program
	tracker := suggest.NewTracker(client, func(term string) {
		p.Send(tui.SuggestionsMsg{Term: term})
	})
	defer tracker.Close()
	ed := formula.NewEditor(nil,
		formula.WithQuerier(tracker),
		formula.WithLogger(log),
		formula.WithEval(formula.Prec(cfg.Precision)),
	)
	p = tea.NewProgram(tui.New(ed, tracker, cfg.Multipliers, formula.Prec(cfg.Precision)))
	if _, err := p.Run(); err != nil {
		return err
	}
	if snap := ed.Snapshot(); len(snap.Tags) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", formula.Format(snap.Tags), formula.FormatValue(ed.Result()))
	}
	return nil
}
