package cmdlib

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerbosity(t *testing.T) {
	defer InitLog(&bytes.Buffer{}, ErrVerbosity)
	var out bytes.Buffer
	InitLog(&out, InfVerbosity)
	Lerr("error %d", 1)
	Linf("info %d", 2)
	Ldbg("debug %d", 3)
	result := out.String()
	if !strings.Contains(result, "error 1") || !strings.Contains(result, "info 2") {
		t.Errorf("unexpected log %q", result)
	}
	if strings.Contains(result, "debug 3") {
		t.Error("unexpected debug message")
	}

	out.Reset()
	InitLog(&out, SilentVerbosity)
	Lerr("error")
	if out.Len() != 0 {
		t.Error("unexpected output")
	}
}
