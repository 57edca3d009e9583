package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doismellburning/bpmsyncd/internal/bpm"
)

func TestOpenWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Write(time.Now(), bpm.AnalysisResult{BPM: 120, Confidence: 0.8, IsDrop: true}))
	require.NoError(t, l.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l2.Write(time.Now(), bpm.AnalysisResult{BPM: 121, Confidence: 0.7}))
	require.NoError(t, l2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, "timestamp,bpm,confidence,coarse_confidence,is_drop,energy,average_energy", lines[0])
}

func TestOpenDailyBuildsPatternedPath(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "bpmsyncd-%Y-%m-%d.csv")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	l, err := OpenDaily(pattern, now)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = os.Stat(filepath.Join(dir, "bpmsyncd-2026-07-31.csv"))
	assert.NoError(t, err)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
