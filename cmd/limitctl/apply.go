package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/limit-importer/backend/internal/engine"
	"github.com/limit-importer/backend/internal/hardware/sim"
	"github.com/limit-importer/backend/internal/parser"
	"github.com/limit-importer/backend/internal/reconcile"
	"github.com/limit-importer/backend/internal/report"
	"github.com/limit-importer/backend/internal/runlog"
	"github.com/limit-importer/backend/internal/tui"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	limitsPath string
	bindings   []string
	strict     bool
)

// unpairedError makes --strict runs exit with status 2 after the summary
// has been printed.
type unpairedError struct {
	limits, results int
}

func (e unpairedError) Error() string {
	return fmt.Sprintf("%d limits and %d results left unpaired", e.limits, e.results)
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Match a limit file to the rig and write every paired limit",
	Example: `  limitctl apply --rig bench.xml --limits limits.yaml
  limitctl apply --rig bench.xml --limits limits.yaml --bind 3="PathA|Meas1|Level"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := runImport(cmd)
		if err != nil {
			return err
		}
		return finish(cmd, ctrl.State())
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Apply a limit file, then pair the leftovers interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := runImport(cmd)
		if err != nil {
			return err
		}
		state := ctrl.State()
		if !state.Complete() {
			state, err = tuiRun(ctrl)
			if err != nil {
				return err
			}
		}
		return finish(cmd, state)
	},
}

// tuiRun is replaced in tests.
var tuiRun = func(ctrl *reconcile.Controller) (reconcile.State, error) {
	return tui.Run(ctrl, tea.WithAltScreen())
}

func init() {
	for _, cmd := range []*cobra.Command{applyCmd, reconcileCmd} {
		cmd.Flags().StringVarP(&limitsPath, "limits", "l", "", "limit file (.yaml, .json, .msgpack, .csv)")
		cmd.Flags().StringArrayVar(&bindings, "bind", nil, `pair a leftover entry with a result: ID="path|measurement|result" (repeatable)`)
		cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 when anything is left unpaired")
		_ = cmd.MarkFlagRequired("limits")
	}
}

// runImport loads the rig and the limit file, runs match and apply, and
// applies the --bind pairs through the reconcile controller.
func runImport(cmd *cobra.Command) (*reconcile.Controller, error) {
	policy, err := engine.LinkPolicyByName(linkMode)
	if err != nil {
		return nil, err
	}
	if rigPath == "" {
		return nil, fmt.Errorf("no rig: pass --rig or set LIMIT_RIG")
	}
	rig, err := sim.LoadRig(rigPath)
	if err != nil {
		return nil, fmt.Errorf("loading rig: %w", err)
	}

	sink, err := openRunLog(cmd)
	if err != nil {
		return nil, err
	}

	entries, err := parser.LoadLimits(limitsPath)
	if err != nil {
		runlog.Appendf(sink, "Limit file rejected: %v", err)
		return nil, err
	}

	eng := engine.New(rig,
		engine.WithLinkPolicy(policy),
		engine.WithRunLog(sink),
		engine.WithLogger(logger))
	_, out := eng.Run(entries)

	ctrl := reconcile.NewController(reconcile.NewState(out), eng.Applier(), sink, logger)
	for _, b := range bindings {
		if err := bind(ctrl, b); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}

func openRunLog(cmd *cobra.Command) (runlog.Sink, error) {
	sinks := runlog.Multi{}
	if verbose {
		sinks = append(sinks, runlog.NewWriter(cmd.ErrOrStderr()))
	}
	if runLogPath != "" {
		file, err := runlog.OpenFile(runLogPath)
		if err != nil {
			return nil, err
		}
		atexit.Register(func() { _ = file.Close() })
		sinks = append(sinks, file)
	}
	return sinks, nil
}

// bind pairs one entry with one result: `ID=path|measurement|result`.
func bind(ctrl *reconcile.Controller, binding string) error {
	id, key, ok := strings.Cut(binding, "=")
	if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(key) == "" {
		return fmt.Errorf("invalid --bind %q: want ID=path|measurement|result", binding)
	}

	for _, e := range []reconcile.Event{
		reconcile.SelectLimit{ID: strings.TrimSpace(id)},
		reconcile.SelectResult{Key: strings.TrimSpace(key)},
		reconcile.Confirm{},
	} {
		if state := ctrl.Dispatch(e); state.LastError != "" {
			ctrl.Dispatch(reconcile.Cancel{})
			return fmt.Errorf("--bind %s: %s", binding, state.LastError)
		}
	}
	ctrl.Dispatch(reconcile.Dismiss{})
	return nil
}

func finish(cmd *cobra.Command, state reconcile.State) error {
	sum := report.Build(state)
	if err := report.Render(cmd.OutOrStdout(), sum); err != nil {
		return err
	}
	if strict && !sum.AllPaired {
		return unpairedError{limits: len(sum.UnpairedLimits), results: len(sum.UnpairedResults)}
	}
	return nil
}
