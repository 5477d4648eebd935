package mp4

// Descriptor tags from ISO 14496-1.
const (
	tagDecoderConfig       = 0x04
	tagDecoderSpecificInfo = 0x05
)

// parseEsds returns the codec name and average bitrate from the raw payload
// of an esds box.
func parseEsds(data []byte) (string, uint32) {
	config := findDescriptor(data, tagDecoderConfig)
	// objectTypeIndication(1) streamType(1) bufferSizeDB(3) maxBitrate(4) avgBitrate(4)
	if config < 0 || config+13 > len(data) {
		return "", 0
	}
	bitrate := uint32(data[config+9])<<24 |
		uint32(data[config+10])<<16 |
		uint32(data[config+11])<<8 |
		uint32(data[config+12])

	switch objectType := data[config]; objectType {
	case 0x40:
		return aacProfile(data, config+13), bitrate
	case 0x66:
		return "MPEG-2 AAC Main", bitrate
	case 0x67:
		return "MPEG-2 AAC-LC", bitrate
	case 0x68:
		return "MPEG-2 AAC SSR", bitrate
	case 0x69, 0x6B:
		return "MP3", bitrate
	case 0:
		return "", bitrate
	default:
		return "Unknown", bitrate
	}
}

// aacProfile reads the audioObjectType of the AudioSpecificConfig in the
// DecoderSpecificInfo that starts at offset.
func aacProfile(data []byte, offset int) string {
	if offset >= len(data) || data[offset] != tagDecoderSpecificInfo {
		return "AAC"
	}
	start := skipDescriptorHeader(data, offset)
	if start < 0 || start >= len(data) {
		return "AAC"
	}

	aot := int(data[start] >> 3)
	if aot == 31 && start+1 < len(data) {
		aot = 32 + (int(data[start]&0x07)<<3 | int(data[start+1]>>5))
	}

	switch aot {
	case 1:
		return "AAC Main"
	case 2:
		return "AAC-LC"
	case 3:
		return "AAC SSR"
	case 4:
		return "AAC LTP"
	case 5:
		return "HE-AAC"
	case 6:
		return "AAC Scalable"
	case 29:
		return "HE-AACv2"
	case 42:
		return "xHE-AAC"
	default:
		return "AAC"
	}
}

// findDescriptor returns the offset of the body of the first descriptor with
// the given tag, or -1.
func findDescriptor(data []byte, tag byte) int {
	for i := range data {
		if data[i] != tag {
			continue
		}
		if body := skipDescriptorHeader(data, i); body >= 0 {
			return body
		}
	}
	return -1
}

// skipDescriptorHeader returns the offset just past a descriptor's tag and
// its expandable size field, or -1 if it runs off the end.
func skipDescriptorHeader(data []byte, tagOffset int) int {
	offset := tagOffset + 1
	for offset < len(data) && data[offset]&0x80 != 0 {
		offset++
	}
	if offset >= len(data) {
		return -1
	}
	return offset + 1
}
