package pinger

import "testing"

func TestProfileForGOOS(t *testing.T) {
	t.Parallel()

	cases := []struct {
		goos      string
		name      string
		supported bool
	}{
		{"windows", "windows", true},
		{"linux", "posix", true},
		{"darwin", "posix", true},
		{"plan9", "unsupported", false},
		{"js", "unsupported", false},
	}
	for _, tc := range cases {
		p := ProfileForGOOS(tc.goos)
		if p.Name != tc.name || p.Supported != tc.supported {
			t.Fatalf("ProfileForGOOS(%q) = %s/%v, want %s/%v", tc.goos, p.Name, p.Supported, tc.name, tc.supported)
		}
	}
}

func TestProfileArgs(t *testing.T) {
	t.Parallel()

	got := ProfileForGOOS("linux").Args(4, "1.1.1.1")
	want := []string{"-c", "4", "-W", "1", "1.1.1.1"}
	if len(got) != len(want) {
		t.Fatalf("args = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args = %v, want %v", got, want)
		}
	}

	got = ProfileForGOOS("windows").Args(2, "1.1.1.1")
	if len(got) != 3 || got[0] != "-n" || got[1] != "2" || got[2] != "1.1.1.1" {
		t.Fatalf("windows args = %v", got)
	}

	if args := ProfileForGOOS("plan9").Args(4, "1.1.1.1"); args != nil {
		t.Fatalf("unsupported args = %v, want nil", args)
	}
}

func TestProfileExtract(t *testing.T) {
	t.Parallel()

	// macOS flavour: stddev instead of mdev.
	macOut := "round-trip min/avg/max/stddev = 10.1/13.76/20.3/3.4 ms"
	v, ok := ProfileForGOOS("darwin").Extract(macOut)
	if !ok || v != 13.76 {
		t.Fatalf("darwin extract = %g, %v", v, ok)
	}

	v, ok = ProfileForGOOS("windows").Extract("    Minimum = 10ms, Maximum = 13ms, Average = 11ms")
	if !ok || v != 11 {
		t.Fatalf("windows extract = %g, %v", v, ok)
	}

	if _, ok := ProfileForGOOS("linux").Extract("no statistics here"); ok {
		t.Fatal("expected no match")
	}
}
