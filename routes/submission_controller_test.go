package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.9:54321", "203.0.113.9"},
		{"[::1]:54321", "::1"},
		{"[2001:db8::42]:80", "2001:db8::42"},
		// no port at all: keep what we got
		{"203.0.113.9", "203.0.113.9"},
	}

	for _, c := range cases {
		t.Run(c.remoteAddr, func(t *testing.T) {
			r := &http.Request{RemoteAddr: c.remoteAddr}
			assert.Equal(t, c.want, clientIP(r))
		})
	}
}

func TestClientIPSeparatesIPv6Respondents(t *testing.T) {
	a := clientIP(&http.Request{RemoteAddr: "[2001:db8::1]:1000"})
	b := clientIP(&http.Request{RemoteAddr: "[2001:db8::2]:1000"})
	assert.NotEqual(t, a, b)
}
