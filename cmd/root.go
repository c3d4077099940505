package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fauu/sway-wait-windows/internal/engine"
	"github.com/fauu/sway-wait-windows/internal/logging"
	"github.com/fauu/sway-wait-windows/internal/output"
	"github.com/fauu/sway-wait-windows/internal/rules"
	"github.com/fauu/sway-wait-windows/internal/sway"
	"github.com/fauu/sway-wait-windows/internal/version"
)

// WaitResult is the result summary printed when the wait ends.
type WaitResult struct {
	OK       bool   `yaml:"ok"                 json:"ok"`
	Matched  int    `yaml:"matched"            json:"matched"`
	Elapsed  string `yaml:"elapsed"            json:"elapsed"`
	TimedOut bool   `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
}

var rootCmd = &cobra.Command{
	Use:   "sway-wait-windows",
	Short: "Run sway commands on windows as they appear",
	Long: `Read window-matching rules from stdin, watch sway window events, and run
each rule's command against the first window that satisfies it. Exits 0 once
every rule has fired, or 1 when the timeout elapses first.

Each rule line pairs :app and/or :title regex directives with a sway command:

	:app foo  floating enable
	:app term :title scratch$  move to scratchpad

Patterns are regex searches (substring), not anchored matches.`,
	RunE: runRoot,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.Flags().Int("timeout", 30, "Max seconds to wait for all rules to match (<=0 waits forever)")
	rootCmd.Flags().String("rules-file", "", "Read rules from this file instead of stdin")
	rootCmd.Flags().String("format", "yaml", "Result summary format: yaml or json")
	rootCmd.Flags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logging.Setup(verbosity)

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		return nil
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	rulesFile, _ := cmd.Flags().GetString("rules-file")

	rs, err := readRules(rulesFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, err := sway.Connect(ctx)
	if err != nil {
		return err
	}

	eng := engine.New(rs, client)
	for _, r := range rs {
		log.Debug().Stringer("rule", r).Msg("parsed rule")
	}
	log.Info().Int("rules", len(rs)).Msg("waiting for windows")

	start := time.Now()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sway.SubscribeWindows(ctx, eng.OnEvent)
	}()

	timeoutCh, stop := armDeadline(timeoutSec)
	defer stop()

	res, err := awaitRules(eng, timeoutCh, errCh, timeoutSec, start)
	if res.OK || res.TimedOut {
		// Print the summary either way; a timeout additionally returns an
		// error for a non-zero exit code.
		if perr := output.Print(res); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// errEventStreamEnded reports a sway event subscription that returned without
// an error while rules were still pending.
var errEventStreamEnded = errors.New("sway event stream ended")

// armDeadline returns a channel that fires once the timeout elapses, plus a
// stop function. A non-positive timeout arms no timer: the returned nil
// channel never fires and the wait can only end via rule exhaustion.
func armDeadline(seconds int) (<-chan time.Time, func()) {
	if seconds <= 0 {
		return nil, func() {}
	}
	timer := time.NewTimer(time.Duration(seconds) * time.Second)
	return timer.C, func() { timer.Stop() }
}

// awaitRules blocks until the first of: every rule consumed, the deadline
// firing, or the event loop failing. Whichever fires first decides the
// outcome; the select consumes exactly one signal.
func awaitRules(eng *engine.Engine, timeoutCh <-chan time.Time, errCh <-chan error, timeoutSec int, start time.Time) (WaitResult, error) {
	select {
	case <-eng.Done():
		return WaitResult{
			OK:      true,
			Matched: eng.Matched(),
			Elapsed: formatElapsed(time.Since(start)),
		}, nil
	case <-timeoutCh:
		return WaitResult{
			OK:       false,
			Matched:  eng.Matched(),
			Elapsed:  formatElapsed(time.Since(start)),
			TimedOut: true,
		}, fmt.Errorf("timed out after %ds with %d rules unmatched", timeoutSec, eng.Pending())
	case err := <-errCh:
		if err == nil {
			err = errEventStreamEnded
		}
		return WaitResult{}, fmt.Errorf("sway event loop: %w", err)
	}
}

// readRules parses rule text from the given file, or stdin when path is
// empty.
func readRules(path string) ([]rules.Rule, error) {
	r := io.Reader(os.Stdin)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open rules file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return rules.Parse(r)
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
