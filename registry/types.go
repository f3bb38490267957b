package registry

import (
	"fmt"
	"time"

	"github.com/wippyai/ftbind"
)

// Handle is an opaque reference to a registered resource.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

// Slot returns the table index encoded in h.
func (h Handle) Slot() uint32 {
	return uint32(h) - 1
}

// Generation returns the reuse counter encoded in h.
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

func (h Handle) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// Kind identifies the native object type behind a handle.
type Kind uint8

const (
	KindLibrary Kind = iota + 1
	KindStream
	KindFace
	KindGlyph
	KindStroker
)

func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindStream:
		return "stream"
	case KindFace:
		return "face"
	case KindGlyph:
		return "glyph"
	case KindStroker:
		return "stroker"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entry is a snapshot of one registered resource.
type Entry struct {
	Created  time.Time
	Native   ftbind.Ptr
	Handle   Handle
	Parent   Handle
	Root     Handle
	Children int
	Kind     Kind
}

// EventType distinguishes registry lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReleased
)

func (t EventType) String() string {
	if t == EventRegistered {
		return "registered"
	}
	return "released"
}

// Event is delivered to observers after the registry state has changed.
type Event struct {
	Entry Entry
	Type  EventType
}

// Observer receives notifications about registry events.
// OnRegistryEvent is called without the registry lock held.
type Observer interface {
	OnRegistryEvent(Event)
}
