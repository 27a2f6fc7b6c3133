package security

import (
	"fmt"
	"path"
	"strings"
)

// SanitizeTarPath normalizes a tar/ar member name into a safe, relative,
// slash-separated path: leading "./" and "/" runs are stripped
// iteratively (a data.tar entry can read "././usr/bin/foo"), and any
// ".." component is rejected outright rather than silently resolved,
// since a resolved ".." could still escape the extraction root.
func SanitizeTarPath(name string) (string, error) {
	clean := name
	for {
		trimmed := strings.TrimPrefix(clean, "./")
		trimmed = strings.TrimPrefix(trimmed, "/")
		if trimmed == clean {
			break
		}
		clean = trimmed
	}
	if clean == "" {
		return "", fmt.Errorf("archive member name %q is empty after normalization", name)
	}
	for _, part := range strings.Split(clean, "/") {
		if part == ".." {
			return "", fmt.Errorf("archive member name %q escapes its root", name)
		}
	}
	return path.Clean(clean), nil
}
