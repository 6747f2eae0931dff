package logging

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LogEntry is one parsed line of the run log.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	RunID   string
	Phase   string
	Wave    int // Zero for phase-level entries
	UnitID  string
	// Attrs holds every other field of the line.
	Attrs map[string]any
}

// LogFilter selects log entries. Unset fields match everything; set fields
// are combined with AND.
type LogFilter struct {
	// Level keeps entries at or above this level.
	Level string
	// Since keeps entries at or after this time.
	Since  time.Time
	RunID  string
	Phase  string
	UnitID string
	// MessageContains keeps entries whose message contains this substring.
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// maxLineSize bounds a single log line; failed plans log their whole stderr.
const maxLineSize = 4 * 1024 * 1024

// ReadLogs parses the run log in dir together with its rotated backups.
// Entries are returned oldest first. Lines that are not JSON are skipped.
func ReadLogs(dir string) ([]LogEntry, error) {
	active := filepath.Join(dir, FileName)
	if _, err := os.Stat(active); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no run log in %s: %w", dir, err)
		}
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	var entries []LogEntry
	for _, path := range logFiles(active) {
		fileEntries, err := readLogFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	return entries, nil
}

// logFiles lists the backups of active from oldest to newest, then active.
func logFiles(active string) []string {
	var backups []string
	for n := 1; ; n++ {
		path := fmt.Sprintf("%s.%d", active, n)
		if _, err := os.Stat(path); err == nil {
			backups = append(backups, path)
			continue
		}
		if _, err := os.Stat(path + ".gz"); err == nil {
			backups = append(backups, path+".gz")
			continue
		}
		break
	}

	files := make([]string, 0, len(backups)+1)
	for i := len(backups) - 1; i >= 0; i-- {
		files = append(files, backups[i])
	}
	return append(files, active)
}

func readLogFile(path string) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var entries []LogEntry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return entries, nil
}

// ParseEntry parses one JSON line written by Logger.
func ParseEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	for key, value := range raw {
		switch key {
		case "time":
			if s, ok := value.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			entry.Level, _ = value.(string)
		case "msg":
			entry.Message, _ = value.(string)
		case "run_id":
			entry.RunID, _ = value.(string)
		case "phase":
			entry.Phase = fmt.Sprint(value)
		case "wave":
			entry.Wave = toInt(value)
		case "unit_id":
			entry.UnitID, _ = value.(string)
		default:
			entry.Attrs[key] = value
		}
	}
	return entry, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

// FilterLogs returns the entries matching filter, keeping their order.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	var out []LogEntry
	for _, e := range entries {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f LogFilter) matches(e LogEntry) bool {
	if f.Level != "" {
		floor, ok := levelOrder[ParseLevel(f.Level)]
		if got, known := levelOrder[strings.ToUpper(e.Level)]; ok && known && got < floor {
			return false
		}
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Phase != "" && e.Phase != f.Phase {
		return false
	}
	if f.UnitID != "" && e.UnitID != f.UnitID {
		return false
	}
	if f.MessageContains != "" && !strings.Contains(e.Message, f.MessageContains) {
		return false
	}
	return true
}

// LastRunID returns the run ID of the newest entry that has one.
func LastRunID(entries []LogEntry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].RunID != "" {
			return entries[i].RunID
		}
	}
	return ""
}
