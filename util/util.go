// Package util is a set of utility variables or methods
package util

import (
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg",
	".png",
	".webp",
)

// IsSupportedImage reports whether name carries a recognised image extension, ignoring case.
func IsSupportedImage(name string) bool {
	return SupportedExt.Contains(strings.ToLower(filepath.Ext(name)))
}

// SafeFileName rejects names that would escape the image directory.
func SafeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
