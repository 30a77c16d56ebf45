// Package sessionid generates the short random hexadecimal ids sessions are
// addressed by.
package sessionid

import "github.com/google/uuid"

// New returns a short random hex id: the low 8 bytes of a fresh UUIDv4,
// hex-encoded. Short enough to type on a command line, random enough that
// two concurrently spawned sessions won't collide.
func New() string {
	u := uuid.New()
	b := u[8:]
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0xf]
	}
	return string(out)
}
