//go:build darwin

package util

import (
	"io/fs"
	"syscall"
	"time"
)

func platformTimes(info fs.FileInfo, times *FileTimes) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	times.Created = time.Unix(st.Birthtimespec.Unix())
	times.Accessed = time.Unix(st.Atimespec.Unix())
}
