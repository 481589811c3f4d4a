package recorder

import "bytes"

// sniffContainer identifies the real container of encoded bytes. Encoders
// occasionally deliver a different container than the requested one, so
// file naming trusts the bytes over the negotiated label.
func sniffContainer(data []byte) (mime, ext string, ok bool) {
	if len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		// EBML header: webm/matroska.
		return "video/webm", "webm", true
	}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return "video/mp4", "mp4", true
	}
	return "", "", false
}
