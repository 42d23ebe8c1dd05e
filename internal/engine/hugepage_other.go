//go:build !linux

package engine

import "sync/atomic"

func adviseHugePages([]atomic.Uint64) bool {
	return false
}
