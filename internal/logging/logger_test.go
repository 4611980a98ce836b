package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lansepyy/article-admin/internal/config"
	"github.com/sirupsen/logrus"
)

func TestDatedPath(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	got := DatedPath("/tmp/logs/articles.log", now)
	if got != "/tmp/logs/articles-2024-07-15.log" {
		t.Errorf("DatedPath = %q", got)
	}
}

func TestInitFileOutput(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "logs", "articles.log")

	cleanup, err := Init(config.Log{Level: "debug", Format: "json", Output: "file", File: base})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	WithComponent("browse").Debug("fetch issued")
	cleanup()

	data, err := os.ReadFile(DatedPath(base, time.Now()))
	if err != nil {
		t.Fatalf("Expected dated log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"browse"`) {
		t.Errorf("Expected component field in log output, got %s", data)
	}
	if Logger().GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", Logger().GetLevel())
	}
}

func TestInitRejectsBadValues(t *testing.T) {
	tests := []config.Log{
		{Level: "loud", Output: "stderr"},
		{Level: "info", Output: "syslog"},
		{Level: "info", Output: "file", File: ""},
	}
	for _, c := range tests {
		if _, err := Init(c); err == nil {
			t.Errorf("Expected error for %+v", c)
		}
	}
}
