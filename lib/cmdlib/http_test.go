package cmdlib

import (
	"testing"
	"time"
)

func TestHTTPClientWithTimeoutAndAddress(t *testing.T) {
	c := HTTPClientWithTimeoutAndAddress(7, "", false)
	if c.Client.Timeout != 7*time.Second {
		t.Errorf("unexpected timeout %v", c.Client.Timeout)
	}
	if c.Addr != nil {
		t.Errorf("unexpected address %v", c.Addr)
	}
	if c.Client.Jar != nil {
		t.Error("unexpected cookie jar")
	}
	c = HTTPClientWithTimeoutAndAddress(1, "127.0.0.1", true)
	if c.Addr == nil || c.Addr.String() != "127.0.0.1:0" {
		t.Errorf("unexpected address %v", c.Addr)
	}
	if c.Client.Jar == nil {
		t.Error("expected cookie jar")
	}
}
