package wasmft

import "github.com/tetratelabs/wazero"

// DefaultModuleName is the instance name used when Config.ModuleName is empty.
const DefaultModuleName = "freetype"

// Config holds configuration for loading a gateway module.
type Config struct {
	// Runtime to instantiate into. Nil creates a private runtime that is
	// closed together with the gateway.
	Runtime wazero.Runtime

	// ModuleName names the instance inside the runtime.
	ModuleName string

	// MemoryLimitPages caps linear memory in 64KiB pages for a private
	// runtime. 0 keeps the wazero default.
	MemoryLimitPages uint32
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.ModuleName == "" {
		out.ModuleName = DefaultModuleName
	}
	return out
}
