package security

import "bytes"

// maliciousSignatures are leading byte patterns that mark content we never
// accept as an upload, whatever the declared MIME type says.
var maliciousSignatures = []struct {
	name  string
	magic []byte
}{
	{"pe-executable", []byte{0x4D, 0x5A}},
	{"zip-archive", []byte{0x50, 0x4B, 0x03, 0x04}},
	{"elf-executable", []byte{0x7F, 0x45, 0x4C, 0x46}},
	{"java-class", []byte{0xCA, 0xFE, 0xBA, 0xBE}},
}

// SniffMaliciousSignature reports whether data starts with a blocked file
// signature, and which one.
func SniffMaliciousSignature(data []byte) (string, bool) {
	for _, sig := range maliciousSignatures {
		if len(data) >= len(sig.magic) && bytes.HasPrefix(data, sig.magic) {
			return sig.name, true
		}
	}
	return "", false
}
