package nsmeta

// Platform versions are packed into one byte: a 5-bit major and a
// 3-bit minor. A record's introduced byte of 0 means it carries no
// version requirement.

// EncodeVersion packs a platform version as (major << 3) | minor.
func EncodeVersion(major, minor uint8) uint8 {
	return major<<3 | minor
}

// MajorVersion extracts the major component of a packed version.
func MajorVersion(v uint8) uint8 {
	return v >> 3
}

// MinorVersion extracts the minor component of a packed version.
func MinorVersion(v uint8) uint8 {
	return v & 0b111
}
