package logging

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestWriter returns a writer whose limit is maxBytes rather than whole
// megabytes.
func newTestWriter(t *testing.T, maxBytes int64, backups int, compress bool) *RotatingWriter {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	rw, err := NewRotatingWriter(path, RotationConfig{MaxBackups: backups, Compress: compress})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	rw.maxBytes = maxBytes
	rw.errOut = io.Discard
	t.Cleanup(func() { _ = rw.Close() })
	return rw
}

func writeLine(t *testing.T, rw *RotatingWriter, s string) {
	t.Helper()
	if _, err := rw.Write([]byte(s + "\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func TestRotatingWriter_RotatesAtLimit(t *testing.T) {
	rw := newTestWriter(t, 20, 2, false)

	writeLine(t, rw, "first entry")  // 12 bytes
	writeLine(t, rw, "second entry") // would reach 25: rotate first

	if got := readFile(t, rw.BackupPath(1)); got != "first entry\n" {
		t.Errorf("backup 1 = %q", got)
	}
	if got := readFile(t, rw.Path()); got != "second entry\n" {
		t.Errorf("active = %q", got)
	}
	if rw.Size() != int64(len("second entry\n")) {
		t.Errorf("Size() = %d", rw.Size())
	}
}

func TestRotatingWriter_KeepsMaxBackups(t *testing.T) {
	rw := newTestWriter(t, 10, 2, false)

	for _, s := range []string{"entry-one", "entry-two", "entry-three", "entry-four"} {
		writeLine(t, rw, s)
	}

	if got := readFile(t, rw.BackupPath(1)); got != "entry-three\n" {
		t.Errorf("backup 1 = %q, want entry-three", got)
	}
	if got := readFile(t, rw.BackupPath(2)); got != "entry-two\n" {
		t.Errorf("backup 2 = %q, want entry-two", got)
	}
	if _, err := os.Stat(rw.BackupPath(3)); !os.IsNotExist(err) {
		t.Errorf("backup 3 should not exist, stat error = %v", err)
	}
}

func TestRotatingWriter_NoBackupsTruncates(t *testing.T) {
	rw := newTestWriter(t, 10, 0, false)

	writeLine(t, rw, "entry-one")
	writeLine(t, rw, "entry-two")

	if got := readFile(t, rw.Path()); got != "entry-two\n" {
		t.Errorf("active = %q", got)
	}
	if _, err := os.Stat(rw.BackupPath(1)); !os.IsNotExist(err) {
		t.Errorf("no backup expected, stat error = %v", err)
	}
}

func TestRotatingWriter_Disabled(t *testing.T) {
	rw := newTestWriter(t, 0, 2, false)

	for i := 0; i < 50; i++ {
		writeLine(t, rw, "an entry that never rotates")
	}
	if _, err := os.Stat(rw.BackupPath(1)); !os.IsNotExist(err) {
		t.Errorf("rotation should be disabled, stat error = %v", err)
	}
}

func TestRotatingWriter_OversizedEntry(t *testing.T) {
	rw := newTestWriter(t, 10, 1, false)

	long := strings.Repeat("x", 40)
	writeLine(t, rw, long)

	if got := readFile(t, rw.Path()); got != long+"\n" {
		t.Errorf("an entry larger than the limit must be written whole to the empty file, got %q", got)
	}
	if _, err := os.Stat(rw.BackupPath(1)); !os.IsNotExist(err) {
		t.Errorf("empty file should not be rotated, stat error = %v", err)
	}
}

func TestRotatingWriter_Compress(t *testing.T) {
	rw := newTestWriter(t, 10, 2, true)

	writeLine(t, rw, "entry-one")
	writeLine(t, rw, "entry-two")

	if _, err := os.Stat(rw.BackupPath(1)); !os.IsNotExist(err) {
		t.Errorf("uncompressed backup should be removed, stat error = %v", err)
	}
	f, err := os.Open(rw.BackupPath(1) + ".gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, gz); err != nil {
		t.Fatalf("decompress error = %v", err)
	}
	if buf.String() != "entry-one\n" {
		t.Errorf("compressed backup = %q", buf.String())
	}
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("earlier run\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	writeLine(t, rw, "this run")
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if got := readFile(t, path); got != "earlier run\nthis run\n" {
		t.Errorf("log = %q", got)
	}
	if _, err := rw.Write([]byte("late\n")); err == nil {
		t.Error("Write() after Close() should fail")
	}
}

func TestNewRotatingLogger_Rotates(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewRotatingLogger(dir, LevelInfo, RotationConfig{MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotatingLogger() error = %v", err)
	}
	defer logger.Close()
	logger.writer.maxBytes = 300

	for i := 0; i < 10; i++ {
		logger.Info("plan finished", "unit_id", "01-01-PLAN.md", "stderr", strings.Repeat("e", 40))
	}

	if _, err := os.Stat(filepath.Join(dir, FileName+".1")); err != nil {
		t.Errorf("expected a rotated log: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName+".2")); !os.IsNotExist(err) {
		t.Errorf("only one backup should be kept, stat error = %v", err)
	}
}
