//go:build !unix && !windows

package judge

func isLockError(err error) bool {
	return false
}
