package msig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tendermint/tendermint/libs/log"
)

func TestLoggerScopesModule(t *testing.T) {
	var buf bytes.Buffer
	logger := Logger(log.NewTMLogger(log.NewSyncWriter(&buf)), "msig")
	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "module=msig") {
		t.Fatalf("module not attached: %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Fatalf("keyvals not logged: %q", out)
	}
}

func TestLoggerDefault(t *testing.T) {
	// Nop logger must never panic.
	Logger(nil, "msig").Info("discarded")
}
