package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a referenced video (or other record) does not exist
	ErrNotFound = errors.New("not found")

	// ErrFileMissing indicates the file backing a video is not on disk
	ErrFileMissing = errors.New("file missing")

	// ErrRenameFailed indicates a filesystem rename raised
	ErrRenameFailed = errors.New("rename failed")

	// ErrRenameSourceMissing indicates the file vanished between the existence check and the rename
	ErrRenameSourceMissing = fmt.Errorf("%w: source disappeared", ErrRenameFailed)

	// ErrRenameLocked indicates a permission or sharing violation during rename
	ErrRenameLocked = fmt.Errorf("%w: file locked or permission denied", ErrRenameFailed)

	// ErrRenameConflict indicates the target filename is already taken by another file
	ErrRenameConflict = fmt.Errorf("%w: target already exists", ErrRenameFailed)

	// ErrValidation indicates the caller supplied out-of-range or malformed input
	ErrValidation = errors.New("validation error")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrLibraryLocked indicates another process holds the library lock
	ErrLibraryLocked = errors.New("library is locked by another process")
)

// UserHint returns advice for the person at the keyboard, or "" when there is none
func UserHint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileMissing):
		return "The file could not be found. Its drive may be disconnected; reconnect it and run a scan."
	case errors.Is(err, ErrRenameConflict):
		return "Another file already uses the new name. Resolve the duplicate and try again."
	case errors.Is(err, ErrRenameFailed):
		return "The file could not be renamed. It may be open in another program; close it and try again."
	case errors.Is(err, ErrValidation):
		return "Favorite levels range from -1 (unjudged) to 4; use \"none\" to clear a judgment."
	case errors.Is(err, ErrLibraryLocked):
		return "Wait for the other clipbox command to finish."
	case errors.Is(err, ErrNotFound):
		return "Check the video id with `clipbox list`."
	}
	return ""
}
