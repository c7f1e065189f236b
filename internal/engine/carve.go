package engine

import "bytes"

type carver struct {
	name   string
	ext    string
	header []byte
	// end returns the exclusive end offset of the object starting at 0 in b,
	// or -1 when no complete object is present.
	end func(b []byte) int
}

var carvers = []carver{
	{name: "jpeg_carved", ext: "jpg", header: []byte{0xFF, 0xD8, 0xFF}, end: jpegEnd},
	{name: "png_carved", ext: "png", header: []byte("\x89PNG\r\n\x1a\n"), end: pngEnd},
	{name: "gif_carved", ext: "gif", header: []byte("GIF89a"), end: gifEnd},
	{name: "gif_carved", ext: "gif", header: []byte("GIF87a"), end: gifEnd},
}

func jpegEnd(b []byte) int {
	if i := bytes.Index(b[3:], []byte{0xFF, 0xD9}); i >= 0 {
		return 3 + i + 2
	}
	return -1
}

func pngEnd(b []byte) int {
	// IEND chunk type followed by its 4-byte CRC
	if i := bytes.Index(b[8:], []byte("IEND")); i >= 0 && 8+i+8 <= len(b) {
		return 8 + i + 8
	}
	return -1
}

func gifEnd(b []byte) int {
	// block terminator followed by the trailer byte
	if i := bytes.Index(b[6:], []byte{0x00, 0x3B}); i >= 0 {
		return 6 + i + 2
	}
	return -1
}

type carved struct {
	carver *carver
	offset int
	data   []byte
}

// carveAll finds every complete object in buf, earliest first. Objects do
// not overlap: scanning resumes after the end of each carved object.
func carveAll(buf []byte, maxSize int) []carved {
	var out []carved
	for pos := 0; pos < len(buf); {
		best := -1
		var bc *carver
		for i := range carvers {
			c := &carvers[i]
			if j := bytes.Index(buf[pos:], c.header); j >= 0 && (best < 0 || j < best) {
				best, bc = j, c
			}
		}
		if bc == nil {
			break
		}
		start := pos + best
		window := buf[start:]
		if maxSize > 0 && len(window) > maxSize {
			window = window[:maxSize]
		}
		if len(window) < len(bc.header) {
			pos = start + 1
			continue
		}
		n := bc.end(window)
		if n < 0 {
			pos = start + 1
			continue
		}
		out = append(out, carved{carver: bc, offset: start, data: buf[start : start+n]})
		pos = start + n
	}
	return out
}
