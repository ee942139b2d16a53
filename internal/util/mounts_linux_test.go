//go:build linux

package util

import "testing"

func TestParseProcMounts(t *testing.T) {
	mounts, err := parseProcMounts()
	if err != nil {
		t.Skipf("/proc/mounts unavailable: %v", err)
	}
	if _, found := mounts["/"]; !found {
		t.Error("Expected root filesystem to be mounted")
	}
}

func TestUnescapeMountField(t *testing.T) {
	if got := unescapeMountField(`/media/My\040Drive`); got != "/media/My Drive" {
		t.Errorf("unescapeMountField = %q", got)
	}
	if got := unescapeMountField("/plain"); got != "/plain" {
		t.Errorf("unescapeMountField = %q", got)
	}
}
