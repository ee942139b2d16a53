//go:build !linux && !darwin && !windows

package util

import "io/fs"

func platformTimes(info fs.FileInfo, times *FileTimes) {}
