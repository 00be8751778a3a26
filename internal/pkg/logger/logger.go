// Package logger provides leveled structured JSON logging with email
// redaction for log lines that carry recipient addresses.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Logger writes one JSON object per entry to stderr.
type Logger struct {
	mu    sync.Mutex
	level Level
}

var std = &Logger{level: INFO}

// SetLevel sets the minimum level for the package-level logger.
func SetLevel(l Level) { std.level = l }

// Debug emits a DEBUG-level entry.
func Debug(msg string, fields ...any) { std.log(DEBUG, msg, fields...) }

// Info emits an INFO-level entry.
func Info(msg string, fields ...any) { std.log(INFO, msg, fields...) }

// Warn emits a WARN-level entry.
func Warn(msg string, fields ...any) { std.log(WARN, msg, fields...) }

// Error emits an ERROR-level entry.
func Error(msg string, fields ...any) { std.log(ERROR, msg, fields...) }

// log renders fields as alternating key/value pairs.
func (l *Logger) log(level Level, msg string, fields ...any) {
	if level < l.level {
		return
	}

	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": levelNames[level],
		"msg":   msg,
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		entry[key] = fields[i+1]
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"level":%q,"msg":%q}`, levelNames[level], msg))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(os.Stderr, string(raw))
}

// RedactEmail masks the local part of an address for log output:
// "alice@example.com" becomes "a***@example.com".
func RedactEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
