package test

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

const digits = "0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomDigits returns n pseudo-random decimal digits.
func RandomDigits(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = digits[randomIntn(len(digits))]
	}
	return string(buf)
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
