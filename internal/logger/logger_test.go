package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, InfoLogger)
	assert.NotNil(t, ErrorLogger)
	assert.NotNil(t, DebugLogger)
}

func TestInfo(t *testing.T) {
	var buf bytes.Buffer
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Info("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestInfoWithFields(t *testing.T) {
	var buf bytes.Buffer
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Info("callback accepted", "user_id", 42, "status", "ok")

	output := buf.String()
	assert.Contains(t, output, "callback accepted")
	assert.Contains(t, output, "user_id=42")
	assert.Contains(t, output, "status=ok")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	ErrorLogger = log.New(&buf, "ERROR: ", 0)

	Error("test error")

	assert.Contains(t, buf.String(), "test error")
}

func TestInfof(t *testing.T) {
	var buf bytes.Buffer
	InfoLogger = log.New(&buf, "INFO: ", 0)

	Infof("test %s", "message")

	assert.Contains(t, buf.String(), "test message")
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	ErrorLogger = log.New(&buf, "ERROR: ", 0)

	Errorf("test %s", "error")

	assert.Contains(t, buf.String(), "test error")
}

func TestDebugf(t *testing.T) {
	var buf bytes.Buffer
	DebugLogger = log.New(&buf, "DEBUG: ", 0)

	Debugf("test %s", "debug")

	assert.Contains(t, buf.String(), "test debug")
}
