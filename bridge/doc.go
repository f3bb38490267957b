// Package bridge lends native memory owned by a registered resource to Go
// code.
//
// A Buffer is a window into the owner's native region. It never caches the
// bytes: each access takes the owner's root guard, confirms the owner is
// still live and only then touches native memory. After the owner is
// released every access fails with already_released instead of reading
// freed memory.
package bridge
