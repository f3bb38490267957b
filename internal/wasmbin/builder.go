package wasmbin

import (
	"github.com/tetratelabs/wazero/api"
)

// Section ids used by Build.
const (
	sectionType     = 0x01
	sectionImport   = 0x02
	sectionFunction = 0x03
	sectionMemory   = 0x05
	sectionExport   = 0x07
	sectionCode     = 0x0a
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Builder assembles a module that forwards each export to a host import of
// the same name.
type Builder struct {
	hostModule   string
	memoryExport string
	funcs        []hostFunc
	memoryPages  uint32
}

type hostFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

// NewBuilder creates a builder whose imports come from hostModule. The module
// exports a one-page memory named "memory" unless changed with Memory.
func NewBuilder(hostModule string) *Builder {
	return &Builder{
		hostModule:   hostModule,
		memoryExport: "memory",
		memoryPages:  1,
	}
}

// Func adds a forwarded function.
func (b *Builder) Func(name string, params, results []api.ValueType) *Builder {
	b.funcs = append(b.funcs, hostFunc{name: name, params: params, results: results})
	return b
}

// Memory sets the initial page count and export name of the memory. An empty
// name leaves the memory unexported.
func (b *Builder) Memory(pages uint32, exportName string) *Builder {
	b.memoryPages = pages
	b.memoryExport = exportName
	return b
}

// Build generates the module bytes.
func (b *Builder) Build() []byte {
	out := append([]byte(nil), header...)
	if len(b.funcs) > 0 {
		out = appendSection(out, sectionType, b.typeSection())
		out = appendSection(out, sectionImport, b.importSection())
		out = appendSection(out, sectionFunction, b.funcSection())
	}
	out = appendSection(out, sectionMemory, b.memorySection())
	out = appendSection(out, sectionExport, b.exportSection())
	if len(b.funcs) > 0 {
		out = appendSection(out, sectionCode, b.codeSection())
	}
	return out
}

// Function i uses type i, both for the import and for its trampoline.
func (b *Builder) typeSection() []byte {
	s := ULEB128(uint32(len(b.funcs)))
	for _, f := range b.funcs {
		s = append(s, 0x60)
		s = append(s, ULEB128(uint32(len(f.params)))...)
		for _, t := range f.params {
			s = append(s, valType(t))
		}
		s = append(s, ULEB128(uint32(len(f.results)))...)
		for _, t := range f.results {
			s = append(s, valType(t))
		}
	}
	return s
}

func (b *Builder) importSection() []byte {
	s := ULEB128(uint32(len(b.funcs)))
	for i, f := range b.funcs {
		s = appendName(s, b.hostModule)
		s = appendName(s, f.name)
		s = append(s, 0x00)
		s = append(s, ULEB128(uint32(i))...)
	}
	return s
}

func (b *Builder) funcSection() []byte {
	s := ULEB128(uint32(len(b.funcs)))
	for i := range b.funcs {
		s = append(s, ULEB128(uint32(i))...)
	}
	return s
}

func (b *Builder) memorySection() []byte {
	s := []byte{0x01, 0x00}
	return append(s, ULEB128(b.memoryPages)...)
}

func (b *Builder) exportSection() []byte {
	n := len(b.funcs)
	if b.memoryExport != "" {
		n++
	}
	s := ULEB128(uint32(n))
	if b.memoryExport != "" {
		s = appendName(s, b.memoryExport)
		s = append(s, 0x02, 0x00)
	}
	// Trampolines follow the imports in the function index space.
	for i, f := range b.funcs {
		s = appendName(s, f.name)
		s = append(s, 0x00)
		s = append(s, ULEB128(uint32(len(b.funcs)+i))...)
	}
	return s
}

func (b *Builder) codeSection() []byte {
	s := ULEB128(uint32(len(b.funcs)))
	for i, f := range b.funcs {
		body := []byte{0x00} // no locals
		for p := range f.params {
			body = append(body, 0x20)
			body = append(body, ULEB128(uint32(p))...)
		}
		body = append(body, 0x10)
		body = append(body, ULEB128(uint32(i))...)
		body = append(body, 0x0b)

		s = append(s, ULEB128(uint32(len(body)))...)
		s = append(s, body...)
	}
	return s
}
