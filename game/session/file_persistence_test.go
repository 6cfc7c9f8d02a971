package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/boxpusher/game/config"
	"github.com/wricardo/mcp-training/boxpusher/game/engine"
	"github.com/wricardo/mcp-training/boxpusher/game/service"
)

func newTestSession(t *testing.T, id string, level *engine.LevelConfig) *service.Session {
	t.Helper()
	eng, err := engine.NewEngine(level)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         level,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
}

func TestFilePersistence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "session_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	session := newTestSession(t, "test1", configManager.GetDefault())

	t.Run("Save and Load Session", func(t *testing.T) {
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		if !persistence.Exists("test1") {
			t.Error("Session file should exist after save")
		}

		loadedSession, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}

		if loadedSession.ID != session.ID {
			t.Errorf("Expected ID %s, got %s", session.ID, loadedSession.ID)
		}
		if loadedSession.Config.Name != session.Config.Name {
			t.Errorf("Expected config name %s, got %s", session.Config.Name, loadedSession.Config.Name)
		}
		if loadedSession.Engine.GetState().TotalBoxes != session.Engine.GetState().TotalBoxes {
			t.Errorf("Expected %d boxes, got %d", session.Engine.GetState().TotalBoxes, loadedSession.Engine.GetState().TotalBoxes)
		}
	})

	t.Run("Save State Changes", func(t *testing.T) {
		if _, ok := session.Engine.Move(engine.Right); !ok {
			t.Fatal("move right should succeed on the classic level")
		}

		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save updated session: %v", err)
		}

		loadedSession, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load updated session: %v", err)
		}

		if loadedSession.Engine.GetHeroPosition() != session.Engine.GetHeroPosition() {
			t.Errorf("Hero position not persisted correctly")
		}
		if len(loadedSession.Engine.GetMoveHistory()) != len(session.Engine.GetMoveHistory()) {
			t.Errorf("Move history not persisted correctly")
		}
	})

	t.Run("Stores Config ID", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(tempDir, "test1.json"))
		if err != nil {
			t.Fatalf("Failed to read session file: %v", err)
		}
		var data PersistedSessionData
		if err := json.Unmarshal(raw, &data); err != nil {
			t.Fatalf("Failed to decode session file: %v", err)
		}
		if data.ConfigName != "classic" {
			t.Errorf("Expected config id classic, got %q", data.ConfigName)
		}
	})

	t.Run("List All Sessions", func(t *testing.T) {
		session2 := newTestSession(t, "test2", configManager.GetDefault())
		if err := persistence.Save(session2); err != nil {
			t.Fatalf("Failed to save second session: %v", err)
		}
		// Stray files are ignored
		os.WriteFile(filepath.Join(tempDir, "not a session.json"), []byte("{}"), 0644)
		os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644)

		sessionIDs, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("Failed to list sessions: %v", err)
		}
		if len(sessionIDs) != 2 {
			t.Errorf("Expected 2 sessions, got %v", sessionIDs)
		}

		found := make(map[string]bool)
		for _, id := range sessionIDs {
			found[id] = true
		}
		if !found["test1"] || !found["test2"] {
			t.Error("Expected sessions not found in list")
		}
	})

	t.Run("Delete Session", func(t *testing.T) {
		if err := persistence.Delete("test2"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if persistence.Exists("test2") {
			t.Error("Session should not exist after delete")
		}
		if _, err := persistence.Load("test2"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Load of deleted session error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("Error Cases", func(t *testing.T) {
		if _, err := persistence.Load("nonexistent"); err == nil {
			t.Error("Should get error when loading non-existent session")
		}
		if err := persistence.Delete("nonexistent"); err == nil {
			t.Error("Should get error when deleting non-existent session")
		}
		if err := persistence.Save(nil); err == nil {
			t.Error("Should get error when saving nil session")
		}
		if _, err := persistence.Load("../escape"); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Load with path traversal error = %v, want ErrInvalidSessionID", err)
		}
		if persistence.Exists("../escape") {
			t.Error("Exists should be false for an invalid id")
		}
	})
}

func TestFilePersistenceLevelSnapshot(t *testing.T) {
	sessionsDir := t.TempDir()
	levelsDir := t.TempDir()

	level := &engine.LevelConfig{
		Name:        "Scratch",
		Description: "A level that will be removed",
		Layout: []string{
			"#####",
			"#@$.#",
			"#####",
		},
	}

	configManager, err := config.NewManager(levelsDir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	if err := configManager.SaveConfig("scratch.json", level); err != nil {
		t.Fatalf("Failed to save level: %v", err)
	}

	persistence, err := NewFilePersistence(sessionsDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	session := newTestSession(t, "snap", level)
	session.Engine.Move(engine.Right)
	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	if err := os.Remove(filepath.Join(levelsDir, "scratch.json")); err != nil {
		t.Fatalf("Failed to remove level file: %v", err)
	}
	configManager.Invalidate("scratch")

	loaded, err := persistence.Load("snap")
	if err != nil {
		t.Fatalf("Session should load from its level snapshot: %v", err)
	}
	if !loaded.Engine.IsSolved() {
		t.Error("Expected the restored session to be solved")
	}
	if got := loaded.Engine.GetHeroPosition(); got != (engine.Position{X: 2, Y: 1}) {
		t.Errorf("Hero position = %v, want (2,1)", got)
	}
}

func TestFilePersistenceFileStructure(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "session_file_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	session := newTestSession(t, "file_test", configManager.GetDefault())
	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	expectedFile := filepath.Join(tempDir, "file_test.json")
	data, err := os.ReadFile(expectedFile)
	if err != nil {
		t.Fatalf("Failed to read session file: %v", err)
	}
	if _, err := os.Stat(expectedFile + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should not be left behind")
	}

	content := string(data)
	for _, field := range []string{`"id"`, `"config_name"`, `"created_at"`, `"level"`, `"game_state"`} {
		if !strings.Contains(content, field) {
			t.Errorf("Session file should contain field %s", field)
		}
	}
}
