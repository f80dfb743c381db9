package cryptobox

import "crypto/rand"

func readFullRandom(b []byte) (int, error) {
	return rand.Read(b)
}
