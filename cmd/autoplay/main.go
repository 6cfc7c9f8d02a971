// Command autoplay drives a running game server end to end: it opens a
// session, asks the server to solve it and then plays the solution back
// through the bulk-move endpoint, the same way an agent would.
//
//	autoplay -url http://localhost:8080 -config classic -chunk 20 -v
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/solver"
)

type options struct {
	ConfigID    string
	Continue    string
	SessionFile string
	Chunk       int
	Delay       time.Duration
	Verbose     bool
}

// errNotSolved means the server could not find a solution for the session
var errNotSolved = errors.New("server did not solve the level")

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	configID := flag.String("config", "", "Level configuration id (default, easy, classic, ...)")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	sessionFile := flag.String("session-file", ".session", "File remembering the last session ID (empty disables)")
	chunk := flag.Int("chunk", 50, "Moves sent per bulk-move request")
	delay := flag.Duration("delay", 0, "Pause between bulk-move requests")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := NewClient(strings.TrimSuffix(*serverURL, "/"))
	state, err := play(ctx, client, options{
		ConfigID:    *configID,
		Continue:    *continueSession,
		SessionFile: *sessionFile,
		Chunk:       *chunk,
		Delay:       *delay,
		Verbose:     *verbose,
	})
	if err != nil {
		log.Printf("Session: %s", client.SessionID())
		log.Fatalf("autoplay failed: %v", err)
	}

	log.Printf("🎉 Solved %s in %d moves (%d pushes)", state.ConfigName, state.CurrentMovesCount, state.Pushes)
	log.Printf("Session: %s", client.SessionID())
}

// play opens or resumes a session, solves it on the server and replays the
// solution. It returns the final state, which is always solved on success.
func play(ctx context.Context, client *Client, opts options) (*engine.GameState, error) {
	if err := openSession(ctx, client, opts); err != nil {
		return nil, err
	}

	state, err := client.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	log.Printf("Level %s: %d boxes, %d on target", state.ConfigName, state.TotalBoxes, state.BoxesPlaced)

	result, err := client.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	if result.Outcome != solver.OutcomeSolved {
		return nil, fmt.Errorf("%w: %s after %d iterations", errNotSolved, result.Outcome, result.Iterations)
	}
	cached := ""
	if result.Cached {
		cached = " (cached)"
	}
	log.Printf("Solution%s: %d moves, %d pushes, %d iterations", cached, len(result.Actions), result.Pushes, result.Iterations)
	if opts.Verbose {
		log.Printf("Moves: %s", result.Compact)
	}

	moves := make([]string, len(result.Actions))
	for i, a := range result.Actions {
		moves[i] = a.String()
	}

	chunk := opts.Chunk
	if chunk <= 0 {
		chunk = len(moves)
	}
	for start := 0; start < len(moves); start += chunk {
		end := min(start+chunk, len(moves))

		bulk, err := client.BulkMove(ctx, moves[start:end])
		if err != nil {
			return nil, fmt.Errorf("bulk move %d-%d: %w", start+1, end, err)
		}
		state = bulk.GameState

		if opts.Verbose {
			log.Printf("Moves %d-%d: executed %d/%d, pushes +%d, %d/%d on target",
				start+1, end, bulk.MovesExecuted, bulk.RequestedMoves, bulk.PushesDelta, state.BoxesPlaced, state.TotalBoxes)
		}

		switch bulk.StopReasonCode {
		case "", "solved":
		default:
			return nil, fmt.Errorf("replay stopped on move %d: %s (%s)", start+bulk.StoppedOnMove, bulk.StoppedReason, bulk.StopReasonCode)
		}

		if opts.Delay > 0 && end < len(moves) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	if state == nil || !state.Solved {
		return nil, errors.New("replayed the whole solution but the level is not solved")
	}
	return state, nil
}

// openSession resumes the requested or remembered session, falling back to a
// new one, and remembers the session it ends up with.
func openSession(ctx context.Context, client *Client, opts options) error {
	sessionID := opts.Continue
	if sessionID == "" && opts.SessionFile != "" {
		if data, err := os.ReadFile(opts.SessionFile); err == nil {
			sessionID = strings.TrimSpace(string(data))
		}
	}

	if sessionID != "" {
		log.Printf("🔄 Resuming session: %s", sessionID)
		_, err := client.Resume(ctx, sessionID)
		if err == nil {
			return nil
		}
		log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
		log.Printf("Creating new session...")
	}

	if _, err := client.CreateSession(ctx, opts.ConfigID); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	log.Printf("✨ Session created: %s", client.SessionID())

	if opts.SessionFile != "" {
		if err := os.WriteFile(opts.SessionFile, []byte(client.SessionID()), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}
	return nil
}
