package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v, want nil, nil", got, err)
	}
}

func TestParse_RoundTripsSlogText(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Warn("feed poll failed", "attempt", 3, "error", `dial tcp: "refused"`)

	entry := Parse(strings.TrimSpace(buf.String()))
	if !entry.Parsed {
		t.Fatalf("Parse(%q).Parsed = false, want true", buf.String())
	}
	if entry.Level != slog.LevelWarn {
		t.Fatalf("Level = %v, want WARN", entry.Level)
	}
	if entry.Message != "feed poll failed" {
		t.Fatalf("Message = %q, want %q", entry.Message, "feed poll failed")
	}
	if entry.Time.IsZero() || time.Since(entry.Time) > time.Minute {
		t.Fatalf("Time = %v, want a recent timestamp", entry.Time)
	}
	want := []Attr{{Key: "attempt", Value: "3"}, {Key: "error", Value: `dial tcp: "refused"`}}
	if !reflect.DeepEqual(entry.Attrs, want) {
		t.Fatalf("Attrs = %#v, want %#v", entry.Attrs, want)
	}
}

func TestParse_NonSlogLines(t *testing.T) {
	tests := []string{
		"",
		"plain panic output",
		`msg="unterminated`,
		"goroutine 1 [running]:",
	}
	for _, line := range tests {
		entry := Parse(line)
		if entry.Parsed {
			t.Errorf("Parse(%q).Parsed = true, want false", line)
		}
		if entry.Level != slog.LevelInfo {
			t.Errorf("Parse(%q).Level = %v, want INFO", line, entry.Level)
		}
		if entry.Raw != line {
			t.Errorf("Parse(%q).Raw = %q", line, entry.Raw)
		}
	}
}

func TestAtLeast(t *testing.T) {
	entries := ParseLines([]string{
		"level=DEBUG msg=a",
		"level=INFO msg=b",
		"level=ERROR msg=c",
		"not a record",
	})
	got := AtLeast(entries, slog.LevelInfo)
	var msgs []string
	for _, e := range got {
		msgs = append(msgs, e.Message+"|"+e.Raw)
	}
	want := []string{"b|level=INFO msg=b", "c|level=ERROR msg=c", "|not a record"}
	if !reflect.DeepEqual(msgs, want) {
		t.Fatalf("AtLeast = %v, want %v", msgs, want)
	}
}
