package template

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// funcRandomInt returns a random integer between min and max (inclusive).
func funcRandomInt(min, max int) string {
	if min > max {
		return ""
	}
	return strconv.Itoa(rand.IntN(max-min+1) + min)
}

// funcRandomString returns a random alphanumeric string of the given length.
func funcRandomString(length int) string {
	if length <= 0 || length > 1024 {
		return ""
	}
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(alphanumeric[rand.IntN(len(alphanumeric))])
	}
	return b.String()
}
