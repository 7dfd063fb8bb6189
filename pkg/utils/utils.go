package utils

import (
	"math/rand"
	"regexp"
	"strings"
)

var (
	nickBlacklist = regexp.MustCompile(`[<>&"']`)
	notRoomChars  = regexp.MustCompile(`[^0-9A-Z]`)
)

const codeBytes = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	codeIdxBits = 6                  // 6 bits to represent a letter index
	codeIdxMask = 1<<codeIdxBits - 1 // All 1-bits, as many as codeIdxBits
	codeIdxMax  = 63 / codeIdxBits   // # of letter indices fitting in 63 bits
)

// RoomCodeLength is the canonical length of a room code
const RoomCodeLength = 6

// RandCode returns a random room code of the specified length. It
// draws from the locked top-level source and is safe for concurrent
// callers.
func RandCode(length int) string {
	b := make([]byte, length)
	for i, cache, remain := length-1, rand.Int63(), codeIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = rand.Int63(), codeIdxMax
		}
		if idx := int(cache & codeIdxMask); idx < len(codeBytes) {
			b[i] = codeBytes[idx]
			i--
		}
		cache >>= codeIdxBits
		remain--
	}

	return string(b)
}

// TrimRunes truncates s to at most n runes
func TrimRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// SanitizeNick strips markup-sensitive characters from a nickname,
// trims it to 20 runes and falls back to "Guest" when nothing is left
func SanitizeNick(nick string) string {
	nick = nickBlacklist.ReplaceAllString(nick, "")
	nick = strings.TrimSpace(nick)
	nick = TrimRunes(nick, 20)
	if nick == "" {
		return "Guest"
	}
	return nick
}

// NormalizeRoomCode uppercases a raw code, drops everything outside
// [0-9A-Z] and truncates to RoomCodeLength. The result is valid only
// if it still has exactly RoomCodeLength characters.
func NormalizeRoomCode(raw string) (string, bool) {
	code := notRoomChars.ReplaceAllString(strings.ToUpper(raw), "")
	code = TrimRunes(code, RoomCodeLength)
	return code, len(code) == RoomCodeLength
}

func InArray(arr []string, val string) bool {
	for _, s := range arr {
		if s == val {
			return true
		}
	}
	return false
}
