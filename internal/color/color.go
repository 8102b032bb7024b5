package color

import (
	"strconv"
	"unicode/utf16"
)

// Derive maps a seed (usually a session id) to a display color "#rrggbb".
// The result depends only on the seed, so it is stable across restarts.
func Derive(seed string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(seed)) {
		hash = int32(unit) + ((hash << 5) - hash)
	}

	buf := make([]byte, 0, 7)
	buf = append(buf, '#')
	for i := 0; i < 3; i++ {
		b := byte(uint32(hash) >> (i * 8))
		if b < 0x10 {
			buf = append(buf, '0')
		}
		buf = strconv.AppendUint(buf, uint64(b), 16)
	}
	return string(buf)
}
