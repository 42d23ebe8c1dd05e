//go:build amd64 && !purego

package engine

import "unsafe"

const hasPrefetch = true

//go:noescape
func prefetchT0(addr unsafe.Pointer)

func prefetch(addr unsafe.Pointer) {
	prefetchT0(addr)
}
