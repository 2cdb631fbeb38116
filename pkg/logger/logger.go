package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category
type Category string

const (
	CategorySync      Category = "sync"
	CategoryProvider  Category = "provider"
	CategoryScheduler Category = "scheduler"
	CategoryCache     Category = "cache"
	CategoryDB        Category = "db"
	CategoryAPI       Category = "api"
	CategoryStartup   Category = "startup"
)

// Level represents log level
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     Level                  `json:"level"`
	Category  Category               `json:"category"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	AccountID string                 `json:"account_id,omitempty"`
	ConfigID  string                 `json:"config_id,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger is the main logger struct
type Logger struct {
	mu       sync.Mutex
	logDir   string
	writers  map[Category]*os.File
	console  bool
	minLevel Level
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger
func Init(logDir string, console bool) error {
	var err error
	once.Do(func() {
		defaultLogger, err = NewLogger(logDir, console)
	})
	return err
}

// NewLogger creates a new logger
func NewLogger(logDir string, console bool) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Logger{
		logDir:   logDir,
		writers:  make(map[Category]*os.File),
		console:  console,
		minLevel: LevelDebug,
	}, nil
}

// getWriter returns or creates a file writer for the category, rotating
// daily by embedding the date in the filename.
func (l *Logger) getWriter(category Category) (io.Writer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", category, today)
	filePath := filepath.Join(l.logDir, filename)

	if writer, exists := l.writers[category]; exists {
		if info, err := writer.Stat(); err == nil {
			if info.Name() == filename {
				return writer, nil
			}
		}
		writer.Close()
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l.writers[category] = file
	return file, nil
}

// Log writes a log entry
func (l *Logger) Log(entry LogEntry) {
	entry.Timestamp = time.Now()

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Printf("Error marshaling log entry: %v\n", err)
		return
	}

	writer, err := l.getWriter(entry.Category)
	if err != nil {
		fmt.Printf("Error getting log writer: %v\n", err)
	} else {
		fmt.Fprintln(writer, string(jsonData))
	}

	if l.console {
		l.printToConsole(entry)
	}
}

func (l *Logger) printToConsole(entry LogEntry) {
	timestamp := entry.Timestamp.Format("15:04:05.000")

	levelColors := map[Level]string{
		LevelDebug: "\033[36m",
		LevelInfo:  "\033[32m",
		LevelWarn:  "\033[33m",
		LevelError: "\033[31m",
	}
	reset := "\033[0m"
	color := levelColors[entry.Level]

	fmt.Printf("%s[%s]%s [%s] [%s] %s: %s",
		color, entry.Level, reset, timestamp, entry.Category, entry.Action, entry.Message)

	if entry.ConfigID != "" {
		fmt.Printf(" (config: %s)", entry.ConfigID)
	}
	if entry.AccountID != "" {
		fmt.Printf(" (account: %s)", entry.AccountID)
	}
	if entry.Duration != "" {
		fmt.Printf(" (duration: %s)", entry.Duration)
	}
	if entry.Error != "" {
		fmt.Printf(" ERROR: %s", entry.Error)
	}
	fmt.Println()

	if len(entry.Data) > 0 {
		dataJSON, _ := json.MarshalIndent(entry.Data, "    ", "  ")
		fmt.Printf("    Data: %s\n", string(dataJSON))
	}
}

// Close closes all file writers
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.writers {
		writer.Close()
	}
	l.writers = make(map[Category]*os.File)
}

// Default returns the default logger
func Default() *Logger {
	if defaultLogger == nil {
		Init("logs", true)
	}
	return defaultLogger
}

// Sync logs sync-run related events (C6)
func Sync(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelInfo, Category: CategorySync, Action: action, Message: message, Data: data})
}

// SyncError logs sync-run errors
func SyncError(action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: CategorySync, Action: action, Message: message, Error: errString(err), Data: data})
}

// Provider logs provider-client (C1) events
func Provider(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelInfo, Category: CategoryProvider, Action: action, Message: message, Data: data})
}

// ProviderError logs provider-client errors
func ProviderError(action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: CategoryProvider, Action: action, Message: message, Error: errString(err), Data: data})
}

// Scheduler logs scheduler (C7) lifecycle events
func Scheduler(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelInfo, Category: CategoryScheduler, Action: action, Message: message, Data: data})
}

// SchedulerWarn logs scheduler warnings
func SchedulerWarn(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelWarn, Category: CategoryScheduler, Action: action, Message: message, Data: data})
}

// SchedulerError logs scheduler errors
func SchedulerError(action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: CategoryScheduler, Action: action, Message: message, Error: errString(err), Data: data})
}

// Cache logs file-info cache (C3) events
func Cache(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelDebug, Category: CategoryCache, Action: action, Message: message, Data: data})
}

// CacheError logs file-info cache errors
func CacheError(action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: CategoryCache, Action: action, Message: message, Error: errString(err), Data: data})
}

// DB logs persistence-layer operations
func DB(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelDebug, Category: CategoryDB, Action: action, Message: message, Data: data})
}

// API logs administrative dispatch-surface requests
func API(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelInfo, Category: CategoryAPI, Action: action, Message: message, Data: data})
}

// Error logs error level message under an arbitrary category
func Error(category Category, action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: category, Action: action, Message: message, Error: errString(err), Data: data})
}

// Startup logs startup/initialization events
func Startup(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelInfo, Category: CategoryStartup, Action: action, Message: message, Data: data})
}

// StartupError logs startup errors
func StartupError(action, message string, err error, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelError, Category: CategoryStartup, Action: action, Message: message, Error: errString(err), Data: data})
}

// StartupWarn logs startup warnings
func StartupWarn(action, message string, data map[string]interface{}) {
	Default().Log(LogEntry{Level: LevelWarn, Category: CategoryStartup, Action: action, Message: message, Data: data})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ReadLogsOptions options for reading logs
type ReadLogsOptions struct {
	Category Category
	Level    Level
	Lines    int
	Search   string
}

// ReadLogs reads log entries from files
func ReadLogs(opts ReadLogsOptions) ([]LogEntry, error) {
	return Default().ReadLogs(opts)
}

func (l *Logger) ReadLogs(opts ReadLogsOptions) ([]LogEntry, error) {
	if opts.Lines <= 0 {
		opts.Lines = 100
	}
	if opts.Lines > 1000 {
		opts.Lines = 1000
	}

	var entries []LogEntry
	today := time.Now().Format("2006-01-02")

	categories := []Category{CategorySync, CategoryProvider, CategoryScheduler, CategoryCache, CategoryDB, CategoryAPI, CategoryStartup}
	if opts.Category != "" {
		categories = []Category{opts.Category}
	}

	for _, cat := range categories {
		filename := fmt.Sprintf("%s_%s.log", cat, today)
		filePath := filepath.Join(l.logDir, filename)

		data, err := os.ReadFile(filePath)
		if err != nil {
			continue
		}

		for _, line := range splitLines(string(data)) {
			if line == "" {
				continue
			}
			var entry LogEntry
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				continue
			}
			if opts.Level != "" && entry.Level != opts.Level {
				continue
			}
			if opts.Search != "" {
				if !containsIgnoreCase(entry.Message, opts.Search) &&
					!containsIgnoreCase(entry.Action, opts.Search) &&
					!containsIgnoreCase(entry.Error, opts.Search) {
					continue
				}
			}
			entries = append(entries, entry)
		}
	}

	sortEntriesByTime(entries)

	if len(entries) > opts.Lines {
		entries = entries[:opts.Lines]
	}

	return entries, nil
}

// GetLogDir returns the log directory path
func GetLogDir() string {
	return Default().logDir
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func containsIgnoreCase(s, substr string) bool {
	return contains(toLower(s), toLower(substr))
}

func toLower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

func contains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func sortEntriesByTime(entries []LogEntry) {
	n := len(entries)
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-i-1; j++ {
			if entries[j].Timestamp.Before(entries[j+1].Timestamp) {
				entries[j], entries[j+1] = entries[j+1], entries[j]
			}
		}
	}
}
