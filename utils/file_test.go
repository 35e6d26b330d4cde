package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetUniqSubDir(t *testing.T) {
	parent := t.TempDir()
	a, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("subdirs must be unique")
	}
	if filepath.Dir(a) != parent {
		t.Fatalf("subdir %q not under %q", a, parent)
	}
	if fi, err := os.Stat(a); err != nil || !fi.IsDir() {
		t.Fatalf("stat %q: %v", a, err)
	}
}

func TestGetFilenameWithoutExt(t *testing.T) {
	for in, want := range map[string]string{
		"/data/pack/band_04.tif": "band_04",
		"thumb.jpg":              "thumb",
		"noext":                  "noext",
	} {
		if got := GetFilenameWithoutExt(in); got != want {
			t.Fatalf("GetFilenameWithoutExt(%q) = %q, want %q", in, got, want)
		}
	}
}
