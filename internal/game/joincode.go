package game

import (
	"crypto/rand"
	"fmt"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
	joinCodeAttempts = 10
)

func newJoinCode() string {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	// 256 is a multiple of 32, so the modulo keeps the draw uniform.
	for i := range buf {
		buf[i] = joinCodeAlphabet[int(buf[i])%len(joinCodeAlphabet)]
	}
	return string(buf)
}

// uniqueJoinCode draws codes until one is not taken. After joinCodeAttempts
// collisions it falls back to suffixing the last draw with a counter.
func uniqueJoinCode(draw func() string, taken func(string) bool) string {
	var code string
	for i := 0; i < joinCodeAttempts; i++ {
		code = draw()
		if !taken(code) {
			return code
		}
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s%d", code, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
