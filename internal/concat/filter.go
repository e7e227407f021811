package concat

import "strings"

// IsLocalURL reports whether an asset URL refers to a file next to the
// document: no scheme and not protocol-relative.
func IsLocalURL(url string) bool {
	return url != "" && !strings.Contains(url, "//") && !strings.Contains(url, ":")
}
