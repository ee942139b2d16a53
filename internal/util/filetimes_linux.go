//go:build linux

package util

import (
	"io/fs"
	"syscall"
	"time"
)

// Linux stat has no birth time; the inode change time is the closest
// approximation the original tool recorded as "created".
func platformTimes(info fs.FileInfo, times *FileTimes) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	times.Created = time.Unix(st.Ctim.Unix())
	times.Accessed = time.Unix(st.Atim.Unix())
}
