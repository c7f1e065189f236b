// Package source produces the buffers a scan submits: files and directory
// trees, standard input, the clipboard, and the layers of a remote container
// image. Every input carries a display name; nested inputs join their chain
// with "::".
package source
