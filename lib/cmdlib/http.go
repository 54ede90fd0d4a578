package cmdlib

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Client represents an HTTP client bound to a source address
type Client struct {
	Addr   net.Addr
	Client *http.Client
}

// HTTPClientWithTimeoutAndAddress returns an HTTP client
// with the specified timeout and source IP address
func HTTPClientWithTimeoutAndAddress(timeoutSeconds int, address string, cookies bool) *Client {
	var addr net.Addr
	dialer := &net.Dialer{Timeout: time.Duration(timeoutSeconds) * time.Second}
	if address != "" {
		tcpAddr := &net.TCPAddr{IP: net.ParseIP(address)}
		dialer.LocalAddr = tcpAddr
		addr = tcpAddr
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	client := &http.Client{
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
		Transport: transport,
	}
	if cookies {
		jar, err := cookiejar.New(nil)
		if err == nil {
			client.Jar = jar
		}
	}
	return &Client{Addr: addr, Client: client}
}

// CloseBody closes response body
func CloseBody(body io.Closer) {
	err := body.Close()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	Lerr("cannot close response body, %v", err)
}
