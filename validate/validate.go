// Command validate checks every level file (JSON or YAML) in a directory,
// ../configs by default. It checks:
//   - that the file parses and passes the engine's level validation
//     (layout characters, one hero, boxes and targets, orientations)
//   - that every box and target sits in the hero's region
//   - that no box starts in a corner off target
//   - that orientations only name springs and treadmills
//   - which messages fall back to the defaults
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Warnings and Info are only reported.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// validateLevel loads a level file and runs the structural and playability
// checks on it
func validateLevel(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	config, err := engine.LoadLevelConfig(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	level, err := engine.BuildLevel(config)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	checkConnectivity(&result, level)
	checkCorners(&result, level)
	checkOrientations(&result, level)
	checkMessages(&result, config)

	if result.Valid {
		m := level.Map
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", config.Name),
			fmt.Sprintf("✓ Grid: %dx%d", m.Width(), m.Height()),
			fmt.Sprintf("✓ Boxes: %d (%d on target)", len(level.Start.Boxes), engine.CountBoxesOnTarget(m, level.Start.Boxes)),
			fmt.Sprintf("✓ Targets: %d", len(m.Targets())),
			fmt.Sprintf("✓ Features: %d springs, %d treadmills, %d oily", m.Count(engine.Spring), m.Count(engine.Treadmill), m.Count(engine.Oily)),
		)
	}
	return result
}

// checkConnectivity flood-fills from the hero ignoring boxes. A box or
// target outside that region can never be used.
func checkConnectivity(result *ValidationResult, level *engine.Level) {
	region := engine.ReachableCells(level.Map, level.Start.Hero, nil)

	var unreachable []string
	for _, b := range level.Start.Boxes {
		if !region[b] {
			unreachable = append(unreachable, fmt.Sprintf("Box at (%d,%d)", b.X, b.Y))
		}
	}
	for _, t := range level.Map.Targets() {
		if !region[t] {
			unreachable = append(unreachable, fmt.Sprintf("Target at (%d,%d)", t.X, t.Y))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d cells unreachable from the hero", len(unreachable))
		for _, u := range unreachable {
			result.fail("Unreachable: %s", u)
		}
		return
	}
	result.Info = append(result.Info, fmt.Sprintf("✓ Connectivity: %d cells reachable from the hero", len(region)))
}

// checkCorners rejects boxes that start wedged between two blocked cells at
// a right angle without a target under them
func checkCorners(result *ValidationResult, level *engine.Level) {
	m := level.Map
	for _, b := range level.Start.Boxes {
		if m.IsTarget(b) {
			continue
		}
		for _, d := range []engine.Direction{engine.Up, engine.Down} {
			if !m.Blocked(b.Offset(d)) {
				continue
			}
			if m.Blocked(b.Offset(engine.Left)) || m.Blocked(b.Offset(engine.Right)) {
				result.fail("Box at (%d,%d) starts in a corner off target", b.X, b.Y)
				break
			}
		}
	}
}

// checkOrientations warns about orientations on cells that ignore them
func checkOrientations(result *ValidationResult, level *engine.Level) {
	keys := make([]string, 0, len(level.Config.Orientations))
	for key := range level.Config.Orientations {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts := strings.Split(key, ",")
		x, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		code := level.Map.CodeAt(engine.Position{X: x, Y: y})
		if code != engine.Spring && code != engine.Treadmill {
			result.warn("Orientation %q is set on a %s cell and is ignored", key, code)
		}
	}
}

// checkMessages notes which messages will use the defaults
func checkMessages(result *ValidationResult, config *engine.LevelConfig) {
	messages := map[string]string{
		"welcome":   config.Messages.Welcome,
		"solved":    config.Messages.Solved,
		"cant_move": config.Messages.CantMove,
		"pushed":    config.Messages.Pushed,
		"moved":     config.Messages.Moved,
	}
	var missing []string
	for key, msg := range messages {
		if msg == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		result.warn("Messages using defaults: %s", strings.Join(missing, ", "))
	}
}

// levelFiles lists the level files of dir in name order
func levelFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every level file in -dir, printing a concise report and
// exiting with non-zero status if any are invalid.
func main() {
	configDir := flag.String("dir", "../configs", "Directory containing level files")
	flag.Parse()

	files, err := levelFiles(*configDir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No level files found in %s\n", *configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, w := range result.Warnings {
			fmt.Println("  ⚠️  " + w)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
