// Command analyze prints quick, human-readable facts about every level file
// in a directory: dimensions, box and target counts, features, how much of
// the floor the hero can reach, and what the solver makes of it. Levels are
// solved in parallel.
//
//	analyze -dir configs -j 4 -timeout 20s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/solver"
	"golang.org/x/sync/errgroup"
)

// LevelAnalysis is what analyze reports for one file
type LevelAnalysis struct {
	File     string
	Name     string
	Width    int
	Height   int
	Boxes    int
	Targets  int
	OnTarget int
	Features map[engine.TileCode]int
	// Reachable counts the cells the hero can walk to without pushing
	Reachable int
	// DistanceSum adds up each box's distance to its nearest target
	DistanceSum int

	Solution   *solver.Solution
	Difficulty *float64
	Err        error
}

var featureCodes = []engine.TileCode{engine.Spring, engine.Treadmill, engine.Oily}

func main() {
	dir := flag.String("dir", "configs", "Directory containing level files")
	workers := flag.Int("j", 4, "Levels solved at the same time")
	timeout := flag.Duration("timeout", 30*time.Second, "Solver budget per level")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := analyzeDir(ctx, *dir, *workers, *timeout)
	if err != nil {
		log.Fatalf("analyze %s: %v", *dir, err)
	}
	printReport(os.Stdout, results)
}

func isLevelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// analyzeDir analyzes every level file in dir, at most workers at a time.
// Per-level problems are reported in LevelAnalysis.Err; only failing to read
// the directory or cancellation fail the whole run.
func analyzeDir(ctx context.Context, dir string, workers int, timeout time.Duration) ([]*LevelAnalysis, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isLevelFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	results := make([]*LevelAnalysis, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeLevel(gctx, file, timeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// analyzeLevel loads, measures and solves one level file
func analyzeLevel(ctx context.Context, path string, timeout time.Duration) *LevelAnalysis {
	result := &LevelAnalysis{File: filepath.Base(path)}

	cfg, err := engine.LoadLevelConfig(path)
	if err != nil {
		result.Err = err
		return result
	}
	level, err := engine.BuildLevel(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	result.Name = cfg.Name
	measure(result, level)

	budget := solver.ConfigFromSettings(cfg.Solver)
	if timeout > 0 {
		budget.MaxDuration = timeout
	}
	sv, err := solver.New(level.Map, budget)
	if err != nil {
		result.Err = err
		return result
	}
	solution, err := sv.Solve(ctx, level.Start.Hero, level.Start.Boxes)
	if err != nil {
		result.Err = err
		return result
	}
	result.Solution = solution
	result.Difficulty = solver.EstimateDifficulty(solution)
	return result
}

// measure fills in the static facts of a level
func measure(result *LevelAnalysis, level *engine.Level) {
	m := level.Map
	start := level.Start

	result.Width = m.Width()
	result.Height = m.Height()
	result.Boxes = len(start.Boxes)
	result.Targets = len(m.Targets())
	result.OnTarget = engine.CountBoxesOnTarget(m, start.Boxes)
	result.Reachable = len(engine.ReachableCells(m, start.Hero, start.Boxes))

	result.Features = make(map[engine.TileCode]int)
	for _, code := range featureCodes {
		if n := m.Count(code); n > 0 {
			result.Features[code] = n
		}
	}

	for _, box := range start.Boxes {
		if _, dist, ok := engine.FindNearestTarget(m, box); ok {
			result.DistanceSum += dist
		}
	}
}

func formatFeatures(features map[engine.TileCode]int) string {
	var parts []string
	for _, code := range featureCodes {
		if n := features[code]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s×%d", code, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func printReport(w io.Writer, results []*LevelAnalysis) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNAME\tSIZE\tBOXES\tFEATURES\tREACH\tDIST\tOUTCOME\tMOVES\tPUSHES\tITER\tTIME\tDIFFICULTY")

	solved := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\t\t\terror: %v\n", r.File, r.Name, r.Err)
			continue
		}

		outcome, moves, pushes, iterations, elapsed := "-", "-", "-", "-", "-"
		if s := r.Solution; s != nil {
			outcome = s.Outcome.String()
			iterations = fmt.Sprint(s.Iterations)
			elapsed = s.TotalTime.Round(time.Millisecond).String()
			if s.Solved() {
				solved++
				moves = fmt.Sprint(len(s.Actions))
				pushes = fmt.Sprint(s.Pushes)
			}
		}
		difficulty := "-"
		if r.Difficulty != nil {
			difficulty = fmt.Sprintf("%.1f", *r.Difficulty)
		}

		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d/%d (%d placed)\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.File, r.Name, r.Width, r.Height,
			r.Boxes, r.Targets, r.OnTarget,
			formatFeatures(r.Features), r.Reachable, r.DistanceSum,
			outcome, moves, pushes, iterations, elapsed, difficulty)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d/%d levels solved\n", solved, len(results))
}
