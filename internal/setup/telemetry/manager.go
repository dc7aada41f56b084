// Package telemetry sets up per-session log files and forwards errors to tracing.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redqct/redqct/internal/setup/config"
	"github.com/redqct/redqct/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sessionLayout names session directories so that they sort chronologically.
const sessionLayout = "2006-01-02_15-04-05"

// ServiceType identifies the binary a manager logs for.
type ServiceType int

const (
	ServiceBot ServiceType = iota
	ServiceRender
)

// String returns the service name used for log files and tracing.
func (s ServiceType) String() string {
	switch s {
	case ServiceBot:
		return "bot"
	case ServiceRender:
		return "render"
	default:
		return "unknown"
	}
}

// Manager owns the log session directory of one process run and every file
// logger created in it.
type Manager struct {
	service    ServiceType
	instanceID string
	logDir     string
	sessionDir string
	level      zapcore.Level
	keep       int
	maxLines   int

	mu    sync.Mutex
	files []*logger.Rotator
}

// NewManager creates a manager writing under logDir.
func NewManager(service ServiceType, logDir string, debugCfg *config.Debug) (*Manager, error) {
	level, err := zapcore.ParseLevel(debugCfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return &Manager{
		service:    service,
		instanceID: uuid.New().String(),
		logDir:     logDir,
		level:      level,
		keep:       max(debugCfg.MaxLogsToKeep, 1),
		maxLines:   debugCfg.MaxLogLines,
	}, nil
}

// InstanceID identifies this process run.
func (m *Manager) InstanceID() string {
	return m.instanceID
}

// SessionDir returns the directory of the current session, empty before GetLogger.
func (m *Manager) SessionDir() string {
	return m.sessionDir
}

// GetLogger prunes old sessions, starts a new one and returns the main logger.
// Errors are also recorded as tracing spans.
func (m *Manager) GetLogger() (*zap.Logger, error) {
	if err := os.MkdirAll(m.logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := m.pruneSessions(); err != nil {
		return nil, fmt.Errorf("failed to prune log sessions: %w", err)
	}

	m.sessionDir = filepath.Join(m.logDir, time.Now().Format(sessionLayout))
	if err := os.MkdirAll(m.sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	core, err := m.fileCore("main.log")
	if err != nil {
		return nil, err
	}

	return m.build(zapcore.NewTee(core, NewSpanCore(m.level))), nil
}

// GetComponentLogger returns a logger writing to its own file in the session
// directory. It falls back to a no-op logger when the file cannot be opened.
func (m *Manager) GetComponentLogger(name string) *zap.Logger {
	if m.sessionDir == "" {
		return zap.NewNop()
	}

	core, err := m.fileCore(name + ".log")
	if err != nil {
		return zap.NewNop()
	}

	return m.build(core)
}

// Close flushes and closes every log file.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		_ = f.Sync()
		_ = f.Close()
	}
	m.files = nil
}

func (m *Manager) fileCore(name string) (zapcore.Core, error) {
	rotator, err := logger.Open(filepath.Join(m.sessionDir, name), m.maxLines)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.files = append(m.files, rotator)
	m.mu.Unlock()

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(rotator), m.level), nil
}

func (m *Manager) build(core zapcore.Core) *zap.Logger {
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(
			zap.String("service", m.service.String()),
			zap.String("instance", m.instanceID[:8]),
		),
	)
}

// pruneSessions removes the oldest session directories so that, with the new
// session, at most keep remain.
func (m *Manager) pruneSessions() error {
	entries, err := os.ReadDir(m.logDir)
	if err != nil {
		return err
	}

	var sessions []string
	for _, e := range entries {
		if e.IsDir() {
			sessions = append(sessions, e.Name())
		}
	}

	if len(sessions) < m.keep {
		return nil
	}

	slices.Sort(sessions)

	for _, name := range sessions[:len(sessions)-m.keep+1] {
		if err := os.RemoveAll(filepath.Join(m.logDir, name)); err != nil {
			return err
		}
	}

	return nil
}
