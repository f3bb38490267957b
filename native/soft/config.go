package soft

import "github.com/wippyai/ftbind/native"

// DefaultVersion is the FreeType version the soft gateway reports.
var DefaultVersion = native.Version{Major: 2, Minor: 13, Patch: 3}

// Config configures a soft Gateway.
type Config struct {
	// HeapLimit caps the number of live heap bytes. Allocations beyond it
	// fail with Out_Of_Memory. Zero means unlimited.
	HeapLimit uint64

	// Version is reported by LibraryVersion. Zero means DefaultVersion.
	Version native.Version
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.Version == (native.Version{}) {
		out.Version = DefaultVersion
	}
	return out
}
