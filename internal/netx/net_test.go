package netx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		segs []string
		want string
	}{
		{"plain", "http://localhost:3000", []string{"capsule", "abc"}, "http://localhost:3000/capsule/abc"},
		{"trailing slash", "https://app.example.com/", []string{"capsule", "abc"}, "https://app.example.com/capsule/abc"},
		{"base path kept", "https://example.com/tc", []string{"capsule", "x"}, "https://example.com/tc/capsule/x"},
		{"escapes", "https://example.com", []string{"capsule", "a b"}, "https://example.com/capsule/a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinURL(tt.base, tt.segs...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinURL_Relative(t *testing.T) {
	_, err := JoinURL("/capsule", "x")
	require.Error(t, err)
}
