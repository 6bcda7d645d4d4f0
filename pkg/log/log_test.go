package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/stratx/pkg/log"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologProviderFields(t *testing.T) {
	var buf bytes.Buffer
	p := log.NewZerologProviderWithWriter(&buf, zerolog.DebugLevel)

	logger := p.GetLoggerWithName("stratpd").With(log.ColumnKey, "age")
	logger.Info("Partition completed",
		log.LeavesKey, 12,
		log.IgnoredKey, 3,
		log.ErrorKey, errors.New("boom"),
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "stratpd", line[log.ComponentKey])
	assert.Equal(t, "age", line[log.ColumnKey])
	assert.Equal(t, float64(12), line[log.LeavesKey])
	assert.Equal(t, float64(3), line[log.IgnoredKey])
	assert.Equal(t, "boom", line[log.ErrorKey])
	assert.Equal(t, "Partition completed", line["message"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	p := log.NewZerologProviderWithWriter(&buf, zerolog.WarnLevel)
	logger := p.GetLogger()

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestOddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	p := log.NewZerologProviderWithWriter(&buf, zerolog.DebugLevel)
	p.GetLogger().Debug("odd", "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "MISSING", lines[0]["dangling"])
}

func TestToLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		" warn ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, log.ToLogLevel(in), in)
	}
}

func TestGlobalProvider(t *testing.T) {
	var buf bytes.Buffer
	log.SetProvider(log.NewZerologProviderWithWriter(&buf, zerolog.InfoLevel))
	defer log.SetupLogger("warn")

	log.GetLoggerWithName("tree").Info("fitted")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "tree", lines[0][log.ComponentKey])

	log.Nop().Error("discarded")
}
