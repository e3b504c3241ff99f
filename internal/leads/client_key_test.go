package leads

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	cases := []struct {
		name string
		xff  string
		real string
		want string
	}{
		{"first forwarded hop", "203.0.113.7, 10.0.0.1", "198.51.100.2", "203.0.113.7"},
		{"forwarded with port", "203.0.113.7:5123", "", "203.0.113.7"},
		{"real ip fallback", "", "198.51.100.2", "198.51.100.2"},
		{"blank forwarded hop", " , 10.0.0.1", "198.51.100.2", "198.51.100.2"},
		{"ipv6", "2001:db8::1", "", "2001:db8::1"},
		{"nothing", "", "", UnknownClientKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/leads", nil)
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.real != "" {
				req.Header.Set("X-Real-Ip", tc.real)
			}
			assert.Equal(t, tc.want, ClientKey(req))
		})
	}
}

func TestClientKeyFromAddr(t *testing.T) {
	assert.Equal(t, "192.0.2.1", ClientKeyFromAddr("192.0.2.1:1234"))
	assert.Equal(t, "2001:db8::1", ClientKeyFromAddr("[2001:db8::1]:443"))
	assert.Equal(t, "198.51.100.2", ClientKeyFromAddr(" 198.51.100.2 "))
	assert.Equal(t, UnknownClientKey, ClientKeyFromAddr(""))
}
