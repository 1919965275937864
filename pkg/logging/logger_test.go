package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// setupTestDir points the log directory at a temp dir and resets global state
func setupTestDir(t *testing.T) (cleanup func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "uirunner-logging-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	origLogDir := logDir
	origInitErr := initErr
	origSessionID := sessionID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	sessionID = ""
	sessionIDOnce = sync.Once{}

	return func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		sessionID = origSessionID
		sessionIDOnce = sync.Once{}

		os.RemoveAll(tempDir)
	}
}

func TestNewLogger(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("test-component")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "test-component" {
		t.Errorf("Expected component 'test-component', got %q", logger.component)
	}

	if logger.sessionID == "" {
		t.Error("Expected non-empty session ID")
	}

	if _, err := os.Stat(logger.logPath); os.IsNotExist(err) {
		t.Errorf("Log file does not exist at %s", logger.logPath)
	}
}

func TestLoggerFormatting(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()
	t.Setenv("UIRUNNER_LOG_LEVEL", "debug")

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Printf("Test message %d", 123)
	logger.Debugf("Debug message")
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")
	logger.Close()

	content, err := os.ReadFile(logger.logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	expectedPatterns := []string{
		`level=info msg="Test message 123"`,
		`level=debug msg="Debug message"`,
		`level=info msg="Info message"`,
		`level=warning msg="Warning message"`,
		`level=error msg="Error message"`,
		"component=test",
	}

	for _, pattern := range expectedPatterns {
		if !strings.Contains(logContent, pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, logContent)
		}
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()
	t.Setenv("UIRUNNER_LOG_LEVEL", "warn")

	logger, err := NewLogger("quiet")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Debugf("hidden debug")
	logger.Warnf("visible warning")
	logger.Close()

	content, err := os.ReadFile(logger.logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden debug") {
		t.Error("debug entry should be filtered at warn level")
	}
	if !strings.Contains(string(content), "visible warning") {
		t.Error("warning entry missing")
	}
}

func TestMultipleComponents(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger1, err := NewLogger("component1")
	if err != nil {
		t.Fatalf("Failed to create logger1: %v", err)
	}
	defer logger1.Close()

	logger2, err := NewLogger("component2")
	if err != nil {
		t.Fatalf("Failed to create logger2: %v", err)
	}
	defer logger2.Close()

	if logger1.sessionID != logger2.sessionID {
		t.Errorf("Expected same session ID, got %q and %q", logger1.sessionID, logger2.sessionID)
	}

	if logger1.logPath != logger2.logPath {
		t.Errorf("Expected same log path, got %q and %q", logger1.logPath, logger2.logPath)
	}

	logger1.Printf("Message from component1")
	logger2.Printf("Message from component2")

	content, err := os.ReadFile(logger1.logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)
	if !strings.Contains(logContent, "component=component1") {
		t.Error("Log missing component1 entries")
	}
	if !strings.Contains(logContent, "component=component2") {
		t.Error("Log missing component2 entries")
	}
}

func TestComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	logger := New(base, "session").Component("waiter").WithFields(map[string]any{"locator": "#name"})
	logger.Infof("resolved")

	out := buf.String()
	if !strings.Contains(out, "component=waiter") {
		t.Errorf("expected component field, got %q", out)
	}
	if !strings.Contains(out, "locator=#name") {
		t.Errorf("expected locator field, got %q", out)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Errorf("nowhere %d", 1)
	if err := logger.Close(); err != nil {
		t.Errorf("Close on discard logger failed: %v", err)
	}
}

func TestGetSessionID(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	id1 := GetSessionID()
	id2 := GetSessionID()

	if id1 != id2 {
		t.Errorf("Expected consistent session ID, got %q and %q", id1, id2)
	}

	if id1 == "" {
		t.Error("Expected non-empty session ID")
	}
}

func TestGetLogDirectory(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	dir, err := GetLogDirectory()
	if err != nil {
		t.Fatalf("Failed to get log directory: %v", err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Log directory does not exist or is not a directory: %s", dir)
	}
}

func TestLoggerClose(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestLogPathFormat(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	fileName := filepath.Base(logger.logPath)
	if !strings.HasSuffix(fileName, "-uirunner.log") {
		t.Errorf("Expected log file to end with '-uirunner.log', got %q", fileName)
	}

	sessionPart := strings.TrimSuffix(fileName, "-uirunner.log")
	if !strings.Contains(sessionPart, "-") {
		t.Errorf("Expected session ID part to contain dashes (UUID format), got %q", sessionPart)
	}
}

func TestLogLevelDefaultsToInfo(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()
	t.Setenv("UIRUNNER_LOG_LEVEL", "")

	logger, err := NewLogger("default")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Debugf("hidden debug")
	logger.Infof("visible info")
	logger.Close()

	content, err := os.ReadFile(logger.logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden debug") {
		t.Error("debug entry should be filtered without UIRUNNER_LOG_LEVEL")
	}
	if !strings.Contains(string(content), "visible info") {
		t.Error("info entry missing")
	}

	t.Setenv("UIRUNNER_LOG_LEVEL", "debug")
	if got := levelFromEnv(); got != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", got)
	}
	t.Setenv("UIRUNNER_LOG_LEVEL", "loud")
	if got := levelFromEnv(); got != logrus.InfoLevel {
		t.Errorf("Expected info level for unknown value, got %v", got)
	}
}
