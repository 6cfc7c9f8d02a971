// Command solve runs the solver on a single level file and prints the
// solution, optionally replaying it board by board.
//
//	solve configs/classic.yaml
//	solve --replay --timeout 5s configs/spring.json
//	solve --format json configs/easy.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/solver"
)

// Report is the JSON output of one solve
type Report struct {
	Level      string         `json:"level"`
	File       string         `json:"file"`
	Outcome    solver.Outcome `json:"outcome"`
	Moves      string         `json:"moves,omitempty"`
	MoveCount  int            `json:"move_count"`
	Pushes     int            `json:"pushes"`
	Iterations int            `json:"iterations"`
	States     int            `json:"states"`
	DurationMs int64          `json:"duration_ms"`
	Difficulty *float64       `json:"difficulty,omitempty"`
}

// errUnsolved is returned when the search ends without a solution
var errUnsolved = errors.New("level not solved")

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUnsolved) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "solve a box pusher level file",
		ArgsUsage: "<level-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-iterations",
				Usage: "frontier pops before giving up (0 keeps the level or default budget)",
			},
			&cli.IntFlag{
				Name:  "max-states",
				Usage: "visited states before giving up (0 keeps the level or default budget)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "wall clock budget (0 keeps the level or default budget)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "output format: text or json",
			},
			&cli.BoolFlag{
				Name:  "replay",
				Usage: "print the board after every move of the solution",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log solver progress to stderr",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("a level file is required")
	}
	format := cmd.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	cfg, err := engine.LoadLevelConfig(path)
	if err != nil {
		return err
	}
	level, err := engine.BuildLevel(cfg)
	if err != nil {
		return err
	}

	budget := solver.ConfigFromSettings(cfg.Solver)
	if n := cmd.Int("max-iterations"); n > 0 {
		budget.MaxIterations = n
	}
	if n := cmd.Int("max-states"); n > 0 {
		budget.MaxStates = n
	}
	if d := cmd.Duration("timeout"); d > 0 {
		budget.MaxDuration = d
	}

	logLevel := slog.LevelWarn
	if cmd.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: logLevel}))

	sv, err := solver.New(level.Map, budget, solver.WithLogger(logger.With("level", cfg.Name)))
	if err != nil {
		return err
	}
	solution, err := sv.Solve(ctx, level.Start.Hero, level.Start.Boxes)
	if err != nil {
		return err
	}

	report := Report{
		Level:      cfg.Name,
		File:       path,
		Outcome:    solution.Outcome,
		Moves:      engine.FormatActions(solution.Actions),
		MoveCount:  len(solution.Actions),
		Pushes:     solution.Pushes,
		Iterations: solution.Iterations,
		States:     solution.States,
		DurationMs: solution.TotalTime.Milliseconds(),
		Difficulty: solver.EstimateDifficulty(solution),
	}

	w := cmd.Root().Writer
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(w, report, solution.TotalTime)
	}

	if cmd.Bool("replay") && solution.Solved() {
		if err := replay(w, cfg, solution.Actions); err != nil {
			return err
		}
	}

	if !solution.Solved() {
		return fmt.Errorf("%w: %s", errUnsolved, solution.Outcome)
	}
	return nil
}

func printReport(w io.Writer, r Report, elapsed time.Duration) {
	fmt.Fprintf(w, "Level:      %s (%s)\n", r.Level, r.File)
	fmt.Fprintf(w, "Outcome:    %s\n", r.Outcome)
	if r.Outcome == solver.OutcomeSolved {
		fmt.Fprintf(w, "Moves:      %s\n", r.Moves)
		fmt.Fprintf(w, "Length:     %d moves, %d pushes\n", r.MoveCount, r.Pushes)
	}
	fmt.Fprintf(w, "Search:     %d iterations, %d states, %s\n", r.Iterations, r.States, elapsed.Round(time.Millisecond))
	if r.Difficulty != nil {
		fmt.Fprintf(w, "Difficulty: %.3f\n", *r.Difficulty)
	}
}

// replay plays the actions on a fresh engine and prints every board. It
// fails if the sequence does not actually solve the level.
func replay(w io.Writer, cfg *engine.LevelConfig, actions []engine.Direction) error {
	game, err := engine.NewEngine(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nStart:\n%s\n", strings.Join(game.GetState().Board, "\n"))
	for i, action := range actions {
		if _, ok := game.Move(action); !ok {
			return fmt.Errorf("move %d (%s) was rejected during replay", i+1, action)
		}
		state := game.GetState()
		fmt.Fprintf(w, "\n%d. %s (%d/%d on target)\n%s\n", i+1, action, state.BoxesPlaced, state.TotalBoxes, strings.Join(state.Board, "\n"))
	}

	if !game.IsSolved() {
		return fmt.Errorf("replay finished without solving %s", cfg.Name)
	}
	return nil
}
