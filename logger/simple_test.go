package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	fn()
	return buf.String()
}

func TestLevelFiltering(t *testing.T) {
	l := NewSimpleLoggerWithLevel("WARN")

	out := captureOutput(t, func() {
		l.Debug("debug line", nil)
		l.Info("info line", nil)
		l.Warn("warn line", nil)
		l.Error("error line", nil)
	})

	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "[WARN] warn line")
	assert.Contains(t, out, "[ERROR] error line")
}

func TestFieldsRendered(t *testing.T) {
	l := NewSimpleLogger()

	out := captureOutput(t, func() {
		l.Info("Cart refreshed", map[string]interface{}{
			"operation": "cart_refresh",
			"count":     3,
		})
	})

	assert.Contains(t, out, "[INFO] Cart refreshed")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "operation=cart_refresh")
}

func TestWithFieldsStampsEveryLine(t *testing.T) {
	l := NewSimpleLogger().WithFields(map[string]interface{}{"session": "s1"})

	out := captureOutput(t, func() {
		l.Info("first", nil)
		l.Info("second", map[string]interface{}{"extra": true})
	})

	assert.Contains(t, out, "session=s1")
	assert.Contains(t, out, "extra=true")
}

func TestSetLevelAliases(t *testing.T) {
	l := NewSimpleLogger()
	l.SetLevel("warning")
	assert.Equal(t, WarnLevel, l.level)

	l.SetLevel("unknown")
	assert.Equal(t, WarnLevel, l.level)

	l.SetLevel("debug")
	assert.Equal(t, DebugLevel, l.level)
}
