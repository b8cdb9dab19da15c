package fileid

import (
	"bytes"
	"encoding/base64"

	"github.com/EightFlix/Error/internal/errors"
)

// trailer marks the end of a packed struct. Read back by Decode it is
// minor version 22, major version 4.
var trailer = []byte{0x16, 0x04}

// maxZeroRun is the longest run a single marker can describe.
const maxZeroRun = 255

// Encode compacts payload followed by the trailer, writing each run of zero
// bytes as 0x00 and a run length, and returns unpadded base64url.
func Encode(payload []byte) string {
	var out bytes.Buffer
	out.Grow(len(payload) + len(trailer))

	zeros := 0
	flush := func() {
		for zeros > 0 {
			n := min(zeros, maxZeroRun)
			out.WriteByte(0)
			out.WriteByte(byte(n))
			zeros -= n
		}
	}

	for _, src := range [][]byte{payload, trailer} {
		for _, b := range src {
			if b == 0 {
				zeros++
				continue
			}
			flush()
			out.WriteByte(b)
		}
	}
	flush()

	return base64.RawURLEncoding.EncodeToString(out.Bytes())
}

// rleDecode expands 0x00,n markers into n zero bytes.
func rleDecode(packed []byte) ([]byte, error) {
	out := make([]byte, 0, len(packed)*2)
	for i := 0; i < len(packed); i++ {
		b := packed[i]
		if b != 0 {
			out = append(out, b)
			continue
		}
		if i+1 >= len(packed) {
			return nil, errors.NewDecode("zero run marker without length")
		}
		i++
		out = append(out, make([]byte, packed[i])...)
	}
	return out, nil
}
