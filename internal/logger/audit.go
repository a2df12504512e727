// Package logger provides the JSON-lines audit log for TLS-layer events:
// engine warnings, verification decisions, delegation failures and
// credential lifecycle changes.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"vgw/internal/constants"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	ConnID    string    `json:"conn_id,omitempty"`
	Details   string    `json:"details"`
	Severity  string    `json:"severity"`
}

type AuditLogger struct {
	mu          sync.Mutex
	file        *os.File
	enc         *json.Encoder
	logCount    map[string]int
	windowStart time.Time
}

var (
	instance *AuditLogger
	once     sync.Once
)

func GetAuditLogger() (*AuditLogger, error) {
	var err error
	once.Do(func() {
		instance, err = newAuditLogger()
	})
	return instance, err
}

func newAuditLogger() (*AuditLogger, error) {
	dir, err := getAuditLogDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	filename := filepath.Join(dir, fmt.Sprintf("audit-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		file:        file,
		enc:         json.NewEncoder(file),
		logCount:    make(map[string]int),
		windowStart: time.Now(),
	}, nil
}

func getAuditLogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", constants.AppName, "audit"), nil
	default:
		return filepath.Join(home, ".local", "share", constants.AppName, "audit"), nil
	}
}

func (al *AuditLogger) Log(event AuditEvent) {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := time.Now()

	if now.Sub(al.windowStart) > time.Minute {
		al.windowStart = now
		al.logCount = make(map[string]int)
	}

	totalLogs := 0
	for _, count := range al.logCount {
		totalLogs += count
	}

	if totalLogs >= constants.MaxAuditLogsPerMinute {
		return
	}

	al.logCount[event.EventType]++
	event.Timestamp = now
	al.enc.Encode(event)
}

// LogEngineWarning records an audit message the TLS engine emitted for a
// session, or without one when the warning predates session setup.
func (al *AuditLogger) LogEngineWarning(connID, msg string) {
	al.Log(AuditEvent{
		EventType: "engine_warning",
		ConnID:    connID,
		Details:   msg,
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogVerifySuccess(connID string) {
	al.Log(AuditEvent{
		EventType: "verify_success",
		ConnID:    connID,
		Details:   "client certificate verification succeeded",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogVerifyFailure(connID, reason string, compat bool) {
	severity := "critical"
	if compat {
		severity = "warning"
	}
	al.Log(AuditEvent{
		EventType: "verify_failure",
		ConnID:    connID,
		Details:   fmt.Sprintf("client certificate verification failed: %s", reason),
		Severity:  severity,
	})
}

func (al *AuditLogger) LogDelegationFailure(keyIndex uint8, op string, err error) {
	al.Log(AuditEvent{
		EventType: "delegation_failure",
		Details:   fmt.Sprintf("key %d %s: %v", keyIndex, op, err),
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogCredentialReload(certs int) {
	al.Log(AuditEvent{
		EventType: "credential_reload",
		Details:   fmt.Sprintf("loaded %d certificate/key pair(s)", certs),
		Severity:  "info",
	})
}

func (al *AuditLogger) Close() error {
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file != nil {
		return al.file.Close()
	}
	return nil
}
