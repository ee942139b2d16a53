//go:build windows

package util

import (
	"io/fs"
	"syscall"
	"time"
)

func platformTimes(info fs.FileInfo, times *FileTimes) {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return
	}
	times.Created = time.Unix(0, attrs.CreationTime.Nanoseconds())
	times.Accessed = time.Unix(0, attrs.LastAccessTime.Nanoseconds())
}
