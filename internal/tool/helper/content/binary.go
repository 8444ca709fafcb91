package content

import "bytes"

// DefaultBinarySampleSize is how many leading bytes are scanned for NUL,
// the same window git uses.
const DefaultBinarySampleSize = 8000

var textBOMs = [][]byte{
	{0xFF, 0xFE},             // UTF-16 LE, also the prefix of UTF-32 LE
	{0xFE, 0xFF},             // UTF-16 BE
	{0x00, 0x00, 0xFE, 0xFF}, // UTF-32 BE
}

// IsBinaryContent is IsBinarySample with DefaultBinarySampleSize.
func IsBinaryContent(data []byte) bool {
	return IsBinarySample(data, DefaultBinarySampleSize)
}

// IsBinarySample reports a NUL byte within the first sampleSize bytes of
// data. Content starting with a UTF-16 or UTF-32 byte order mark is text.
func IsBinarySample(data []byte, sampleSize int) bool {
	for _, bom := range textBOMs {
		if bytes.HasPrefix(data, bom) {
			return false
		}
	}
	return bytes.IndexByte(data[:min(len(data), sampleSize)], 0) >= 0
}
