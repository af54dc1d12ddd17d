package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestActivityLogPrintf(t *testing.T) {
	var buf bytes.Buffer
	l := NewActivityLog(&buf)
	l.now = func() time.Time {
		return time.Date(2014, 2, 3, 12, 0, 0, 0, time.UTC)
	}

	l.Printf("fetch-start ledger=%d attempt=%d", 100, 1)
	l.Printf("fetch-ok ledger=%d txs=%d", 100, 3)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2:\n%s", len(lines), buf.String())
	}
	if lines[0] != "2014-02-03T12:00:00Z fetch-start ledger=100 attempt=1" {
		t.Errorf("line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "fetch-ok ledger=100 txs=3") {
		t.Errorf("line = %q", lines[1])
	}
}

func TestOpenActivityLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.log")

	first, err := OpenActivityLog(path)
	if err != nil {
		t.Fatal(err)
	}
	first.Printf("run-done stored=1 duplicates=0 skipped=0 failed=0")
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := OpenActivityLog(path)
	if err != nil {
		t.Fatal(err)
	}
	second.Printf("fetch-start ledger=200 attempt=1")
	if err := second.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "run-done stored=1") {
		t.Errorf("first entry lost:\n%s", content)
	}
	if !strings.Contains(content, "fetch-start ledger=200") {
		t.Errorf("second entry missing:\n%s", content)
	}
	if strings.Index(content, "run-done") > strings.Index(content, "ledger=200") {
		t.Error("entries out of append order")
	}
}
