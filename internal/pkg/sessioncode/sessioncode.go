package sessioncode

import "math/rand"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length of a share code. Collision avoidance is not a security property
// here; codes only need to be easy to read out loud and unlikely to clash.
const Length = 8

func Generate() string {
	return GenerateN(Length)
}

func GenerateN(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
