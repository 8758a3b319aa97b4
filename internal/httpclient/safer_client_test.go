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

func TestValidateURL_Schemes(t *testing.T) {
	c := NewSaferClient(5 * time.Second)

	_, err := c.ValidateURL("https://api.example.com/prices")
	assert.NoError(t, err)

	_, err = c.ValidateURL("ftp://example.com/prices")
	assert.Error(t, err)

	_, err = c.ValidateURL("file:///etc/passwd")
	assert.Error(t, err)
}

func TestValidateURL_BlocksLocalhostAndPrivate(t *testing.T) {
	c := NewSaferClient(5 * time.Second)

	for _, bad := range []string{
		"http://localhost/prices",
		"http://127.0.0.1/prices",
		"http://192.168.1.10/prices",
		"http://10.0.0.5/prices",
		"http://evil.com@localhost/prices",
	} {
		_, err := c.ValidateURL(bad)
		assert.Error(t, err, "url %s", bad)
	}
}

func TestIsPrivateIP(t *testing.T) {
	cases := map[string]bool{
		"10.1.2.3":    true,
		"172.16.0.1":  true,
		"192.168.0.1": true,
		"127.0.0.1":   true,
		"169.254.1.1": true,
		"8.8.8.8":     false,
		"::1":         true,
		"fc00::1":     true,
		"2600::1":     false,
	}
	for addr, want := range cases {
		ip := net.ParseIP(addr)
		require.NotNil(t, ip, addr)
		assert.Equal(t, want, isPrivateIP(ip), addr)
	}
}

func TestDo_AppliesDefaultHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	c := WrapClient(srv.Client())
	c.SetDefaultHeaders(http.Header{
		"Authorization": []string{"Bearer default"},
		"Accept":        []string{"application/json"},
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer explicit")

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// Request-specific header wins; missing header filled from defaults.
	assert.Equal(t, "Bearer explicit", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}
