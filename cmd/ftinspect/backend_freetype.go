//go:build freetype && cgo

package main

import (
	"context"

	"github.com/wippyai/ftbind/native"
	"github.com/wippyai/ftbind/native/cft"
)

func init() {
	backends["freetype"] = func(context.Context, *options) (native.Gateway, error) {
		return cft.New(), nil
	}
}
