//
//  internal/clientinfo/clientinfo.go
//
//  Lightweight description of the browser behind an auth request: client
//  IP, user-agent fingerprint, and an optional country hint.  The struct
//  is inert, so it is safe to log or write to the audit trail.
//
//  Input is the header set the dispatcher forwards to the auth service
//  (User-Agent and X-Forwarded-For), not the raw *http.Request.
//
//  Dependencies
//  • github.com/avct/uasurfer           (UA parsing)
//  • github.com/oschwald/geoip2-golang  (MaxMind lookup, optional)
//

package clientinfo

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Info is what the audit trail records about a client.
type Info struct {
	IP      string // left-most parseable X-Forwarded-For hop
	Browser string // "Chrome", "Firefox", "Safari", ...
	Version string // "124.0.6367"
	OS      string // "macOS", "Windows", "Android", "iOS", ...
	Device  string // "Desktop", "Phone", "Tablet", ...
	IsBot   bool
	Country string // ISO code, empty without a GeoIP database
}

//
//  -----------------------------
//  Resolver
//  -----------------------------
//

// Resolver turns headers into Info.  The zero value works and skips the
// country lookup.  Safe for concurrent use.
type Resolver struct {
	geo *geoip2.Reader
}

// Open returns a Resolver.  An empty path disables the country lookup;
// a path that cannot be opened is an error.
func Open(geoDBPath string) (*Resolver, error) {
	if geoDBPath == "" {
		return &Resolver{}, nil
	}
	rd, err := geoip2.Open(geoDBPath)
	if err != nil {
		return nil, fmt.Errorf("clientinfo: open GeoIP database: %w", err)
	}
	return &Resolver{geo: rd}, nil
}

// Close releases the GeoIP database, if any.
func (r *Resolver) Close() error {
	if r == nil || r.geo == nil {
		return nil
	}
	return r.geo.Close()
}

// Describe builds Info from forwarded headers.
func (r *Resolver) Describe(h http.Header) Info {
	info := parseUA(h.Get("User-Agent"))
	ip := ClientIP(h)
	if ip != nil {
		info.IP = ip.String()
		info.Country = r.country(ip)
	}
	return info
}

func (r *Resolver) country(ip net.IP) string {
	if r == nil || r.geo == nil {
		return ""
	}
	rec, err := r.geo.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

//
//  -----------------------------
//  Helpers
//  -----------------------------
//

// ClientIP returns the left-most parseable X-Forwarded-For address, or nil.
func ClientIP(h http.Header) net.IP {
	for _, part := range strings.Split(h.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip
		}
	}
	return nil
}

// parseUA converts a raw header using uasurfer.  An empty header yields
// an empty Info.
func parseUA(raw string) Info {
	if raw == "" {
		return Info{}
	}
	u := uasurfer.Parse(raw)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return Info{
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: trimVersion(u.Browser.Version),
		OS:      osName,
		Device:  deviceName(u.DeviceType),
		IsBot:   u.IsBot(),
	}
}

// trimVersion renders major.minor.patch without trailing zero parts,
// e.g. 17.0.0 → "17", 17.3.0 → "17.3".  All zeros give "".
func trimVersion(v uasurfer.Version) string {
	parts := []int{v.Major, v.Minor, v.Patch}
	for len(parts) > 0 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = strconv.Itoa(p)
	}
	return strings.Join(s, ".")
}

// deviceName maps uasurfer.DeviceType to a user-friendly string.
func deviceName(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}
