package pinger

import (
	"regexp"
	"strconv"
)

// Profile bundles the OS-family-specific pieces of a ping invocation: the
// argument template and the pattern that extracts the average round-trip
// time from the command's output. Profiles are resolved once from the host
// GOOS so tests can exercise each family against canned output.
type Profile struct {
	Name      string
	Supported bool
	pattern   *regexp.Regexp
	args      func(count int, target string) []string
}

var (
	// Windows ping prints a single "Average = Nms" summary value.
	windowsProfile = Profile{
		Name:      "windows",
		Supported: true,
		pattern:   regexp.MustCompile(`Average = (\d+)ms`),
		args: func(count int, target string) []string {
			return []string{"-n", strconv.Itoa(count), target}
		},
	}

	// Linux and macOS ping print a "min/avg/max/..." summary line; the
	// second slash-separated value is the average. -W bounds each packet
	// to one second.
	posixProfile = Profile{
		Name:      "posix",
		Supported: true,
		pattern:   regexp.MustCompile(`min/avg/max/[^\s]+ = [\d.]+/([\d.]+)/`),
		args: func(count int, target string) []string {
			return []string{"-c", strconv.Itoa(count), "-W", "1", target}
		},
	}

	unsupportedProfile = Profile{Name: "unsupported"}
)

// ProfileForGOOS selects the ping profile for a GOOS value. Hosts outside
// the recognized families get the unsupported profile, which never spawns
// a process.
func ProfileForGOOS(goos string) Profile {
	switch goos {
	case "windows":
		return windowsProfile
	case "linux", "darwin":
		return posixProfile
	default:
		return unsupportedProfile
	}
}

// Args builds the ping argument list for a target.
func (p Profile) Args(count int, target string) []string {
	if p.args == nil {
		return nil
	}
	return p.args(count, target)
}

// Extract applies the profile's pattern to captured ping output and returns
// the average round-trip time in milliseconds.
func (p Profile) Extract(output string) (float64, bool) {
	if p.pattern == nil {
		return 0, false
	}
	m := p.pattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
