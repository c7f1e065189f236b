package source

import "strings"

// VirtualPathSeparator is used to delimit components in virtual paths.
const VirtualPathSeparator = "::"

// Input is one buffer to submit and the name reported with its events.
type Input struct {
	Name string
	Data []byte
}

// ParseVirtualPath splits a virtual path into its components.
// Example: "img:tag::sha256:abc::etc/passwd" -> ["img:tag", "sha256:abc", "etc/passwd"]
func ParseVirtualPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, VirtualPathSeparator)
}

// BuildVirtualPath constructs a virtual path from components.
func BuildVirtualPath(components ...string) string {
	return strings.Join(components, VirtualPathSeparator)
}
