package util

import "testing"

func TestDetectMountOnTempDir(t *testing.T) {
	info, err := DetectMount(t.TempDir())
	if err != nil {
		t.Fatalf("DetectMount failed: %v", err)
	}
	if info.Describe() == "" {
		t.Error("Describe should never be empty")
	}
}

func TestMountDescribe(t *testing.T) {
	tests := []struct {
		info     MountInfo
		expected string
	}{
		{MountInfo{MountPoint: "/", FSType: "ext4"}, "local (ext4 at /)"},
		{MountInfo{MountPoint: "/mnt/nas", FSType: "nfs4", Network: true}, "network (nfs4 at /mnt/nas)"},
		{MountInfo{MountPoint: "/media/usb", FSType: "exfat", Removable: true}, "removable (exfat at /media/usb)"},
		{MountInfo{}, "local (unknown)"},
	}
	for _, tt := range tests {
		if got := tt.info.Describe(); got != tt.expected {
			t.Errorf("Describe() = %q, expected %q", got, tt.expected)
		}
	}
}
