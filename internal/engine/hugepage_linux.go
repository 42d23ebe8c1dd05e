//go:build linux

package engine

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// adviseHugePages asks the kernel to back the table with transparent huge
// pages, which cuts TLB misses on random probes. It reports whether the
// advice was accepted; the table works the same either way.
func adviseHugePages(entries []atomic.Uint64) bool {
	if len(entries) == 0 {
		return false
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&entries[0])), len(entries)*ttEntryBytes)
	return unix.Madvise(mem, unix.MADV_HUGEPAGE) == nil
}
