package sourcemap

import (
	"strings"

	"github.com/pkg/errors"
)

// Base64 VLQ as used by source map v3 mappings: 5 data bits per digit,
// bit 6 is the continuation flag, the lowest bit of the first digit is the
// sign.
const (
	vlqShift    = 5
	vlqBase     = 1 << vlqShift
	vlqMask     = vlqBase - 1
	vlqContinue = vlqBase
)

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [128]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Digits); i++ {
		base64Values[base64Digits[i]] = int8(i)
	}
}

// appendVLQ writes value in base64 VLQ to sb.
func appendVLQ(sb *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & vlqMask
		v >>= vlqShift
		if v > 0 {
			digit |= vlqContinue
		}
		sb.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}

// EncodeVLQ returns value in base64 VLQ.
func EncodeVLQ(value int) string {
	var sb strings.Builder
	appendVLQ(&sb, value)
	return sb.String()
}

// DecodeVLQ decodes one value from the start of s and returns it with the
// number of bytes consumed.
func DecodeVLQ(s string) (value, n int, err error) {
	shift := 0
	v := 0
	for n < len(s) {
		c := s[n]
		n++
		if c >= 128 || base64Values[c] < 0 {
			return 0, n, errors.Errorf("invalid base64 digit %q", c)
		}
		digit := int(base64Values[c])
		v |= (digit & vlqMask) << shift
		if digit&vlqContinue == 0 {
			value = v >> 1
			if v&1 != 0 {
				value = -value
			}
			return value, n, nil
		}
		shift += vlqShift
		if shift > 60 {
			return 0, n, errors.New("VLQ value overflows")
		}
	}
	return 0, n, errors.New("unterminated VLQ value")
}
