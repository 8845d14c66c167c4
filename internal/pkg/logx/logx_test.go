package logx

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("", true))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("", false))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn", true))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error", false))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose", false))
}

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.57:5123":        "203.0.113.0",
		"127.0.0.1:80":             "127.0.0.1",
		"[2001:db8:1:2:3:4:5:6]:1": "2001:db8:1:2::",
		"not-an-ip":                "unknown_ip",
	}

	for in, want := range cases {
		assert.Equal(t, want, anonymizeIP(in), in)
	}
}
