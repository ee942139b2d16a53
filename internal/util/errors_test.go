package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRenameErrorsWrapRenameFailed(t *testing.T) {
	for _, err := range []error{ErrRenameSourceMissing, ErrRenameLocked, ErrRenameConflict} {
		if !errors.Is(err, ErrRenameFailed) {
			t.Errorf("%v should wrap ErrRenameFailed", err)
		}
	}
	if errors.Is(ErrRenameLocked, ErrRenameSourceMissing) {
		t.Error("rename kinds must stay distinct")
	}
}

func TestUserHint(t *testing.T) {
	tests := []struct {
		err      error
		contains string
	}{
		{fmt.Errorf("video 3: %w", ErrFileMissing), "disconnected"},
		{fmt.Errorf("video 3: %w", ErrRenameLocked), "open in another program"},
		{fmt.Errorf("video 3: %w", ErrRenameConflict), "already uses"},
		{fmt.Errorf("level 9: %w", ErrValidation), "-1 (unjudged) to 4"},
		{nil, ""},
		{errors.New("something else"), ""},
	}

	for _, tt := range tests {
		hint := UserHint(tt.err)
		if tt.contains == "" {
			if hint != "" {
				t.Errorf("UserHint(%v) = %q, expected empty", tt.err, hint)
			}
			continue
		}
		if !strings.Contains(hint, tt.contains) {
			t.Errorf("UserHint(%v) = %q, expected it to mention %q", tt.err, hint, tt.contains)
		}
	}
}
