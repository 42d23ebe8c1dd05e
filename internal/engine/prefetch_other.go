//go:build !amd64 || purego

package engine

import "unsafe"

const hasPrefetch = false

func prefetch(unsafe.Pointer) {}
