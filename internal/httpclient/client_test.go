package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	hosted := New(5*time.Second, Options{BlockPrivate: true})
	local := New(5*time.Second, Options{})

	tests := []struct {
		name    string
		client  *Client
		url     string
		wantErr bool
	}{
		{"public https", hosted, "https://openrouter.ai/api/v1/chat/completions", false},
		{"ftp scheme", hosted, "ftp://example.com/file", true},
		{"credentials in url", hosted, "http://evil.com@localhost/", true},
		{"localhost blocked for hosted", hosted, "http://localhost:11434/v1", true},
		{"loopback ip blocked for hosted", hosted, "http://127.0.0.1:8080", true},
		{"rfc1918 blocked for hosted", hosted, "http://192.168.1.10/", true},
		{"localhost allowed for local inference", local, "http://localhost:11434/v1", false},
		{"missing host", local, "http:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("10.1.2.3")))
	assert.True(t, isPrivateIP(net.ParseIP("::1")))
	assert.True(t, isPrivateIP(net.ParseIP("fd00::1")))
	assert.False(t, isPrivateIP(net.ParseIP("8.8.8.8")))
	assert.False(t, isPrivateIP(net.ParseIP("2606:4700::1111")))
}

func TestWrap_ReachesTestServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := Wrap(srv.Client())
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDo_BlocksBadScheme(t *testing.T) {
	client := New(time.Second, Options{AllowedSchemes: []string{"https"}})
	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.Error(t, err)
}
