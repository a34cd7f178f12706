package stunaddr

import (
	"context"
	"testing"
	"time"
)

func TestHost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"203.0.113.7:33134", "203.0.113.7"},
		{"[2001:db8::1]:33134", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"},
	}
	for _, tc := range cases {
		if got := Host(tc.in); got != tc.want {
			t.Fatalf("Host(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDiscover_UnreachableServerFails(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// TEST-NET-3 address: no STUN server here; every attempt must soft-fail
	// and the aggregate error surfaces.
	_, err := Discover(ctx, []string{"203.0.113.1:3478"}, 200*time.Millisecond)
	if err == nil {
		t.Fatal("expected discovery to fail")
	}
}
