// Package lzf implements the LZF compression algorithm used for string
// payloads in the dump format.
//
// LZF is a small, fast LZ77-family compressor. Its wire format is a
// sequence of chunks, each starting with a control byte:
//
//   - ctrl < 32: a literal run of (ctrl+1) bytes follows verbatim.
//   - ctrl >= 32: a back-reference. The 3 high bits of ctrl give a length
//     field (1..6, or 7 meaning "read one more length byte"); the low 5
//     bits are the high bits of a 13-bit back-offset, whose low 8 bits
//     follow in the next byte. The copied run length is length-field + 2.
//
// Compression is attempted only for strings over 20 bytes and only kept
// if it actually shrinks the payload.
package lzf

import "github.com/emberkv/rdbsnap/errs"

const (
	maxLiteral = 32
	maxOffset  = 1 << 13 // 8192
	maxLen     = 264     // 2 + (7 + 255)
	hashBits   = 15
	hashSize   = 1 << hashBits
)

func hash3(b0, b1, b2 byte) uint32 {
	v := uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2)
	return (v * 2654435761) >> (32 - hashBits)
}

// Compress produces the LZF encoding of src. It returns
// errs.ErrNoCompressionBenefit if the result would not be smaller than src;
// callers only keep the LZF form when it is strictly shorter.
func Compress(src []byte) ([]byte, error) {
	n := len(src)
	if n == 0 {
		return nil, errs.ErrNoCompressionBenefit
	}

	dst := make([]byte, 0, n)
	htab := make([]int32, hashSize)
	for i := range htab {
		htab[i] = -1
	}

	litStart := -1
	litLen := 0

	flushLiteral := func() {
		if litLen > 0 {
			dst[litStart] = byte(litLen - 1)
			litLen = 0
			litStart = -1
		}
	}
	startLiteral := func() {
		dst = append(dst, 0) // placeholder, patched by flushLiteral
		litStart = len(dst) - 1
	}

	i := 0
	for i < n {
		matched := false
		if i+3 <= n {
			h := hash3(src[i], src[i+1], src[i+2])
			ref := int(htab[h])
			htab[h] = int32(i)

			if ref >= 0 && i-ref <= maxOffset {
				maxL := n - i
				if maxL > maxLen {
					maxL = maxLen
				}
				l := 0
				for l < maxL && src[ref+l] == src[i+l] {
					l++
				}
				if l >= 3 {
					flushLiteral()
					offset := i - ref - 1
					lengthField := l - 2
					if lengthField < 7 {
						dst = append(dst, byte(lengthField<<5)|byte(offset>>8))
					} else {
						dst = append(dst, byte(7<<5)|byte(offset>>8))
						dst = append(dst, byte(lengthField-7))
					}
					dst = append(dst, byte(offset&0xff))
					i += l
					matched = true
				}
			}
		}

		if !matched {
			if litStart == -1 {
				startLiteral()
			}
			dst = append(dst, src[i])
			litLen++
			i++
			if litLen == maxLiteral {
				flushLiteral()
			}
		}
	}
	flushLiteral()

	if len(dst) >= n {
		return nil, errs.ErrNoCompressionBenefit
	}

	return dst, nil
}

// Decompress reverses Compress. expectedLen is the original, uncompressed
// length recorded on the wire ("original_len"); it is used
// both to preallocate the output and to validate the result.
func Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	out := make([]byte, 0, expectedLen)
	i := 0
	n := len(compressed)

	for i < n {
		ctrl := int(compressed[i])
		i++

		if ctrl < 32 {
			length := ctrl + 1
			if i+length > n {
				return nil, errs.ErrInvalidLZFData
			}
			out = append(out, compressed[i:i+length]...)
			i += length
			continue
		}

		length := ctrl >> 5
		if length == 7 {
			if i >= n {
				return nil, errs.ErrInvalidLZFData
			}
			length += int(compressed[i])
			i++
		}
		if i >= n {
			return nil, errs.ErrInvalidLZFData
		}
		offset := ((ctrl & 0x1f) << 8) + int(compressed[i]) + 1
		i++

		ref := len(out) - offset
		if ref < 0 {
			return nil, errs.ErrInvalidLZFData
		}

		for j := 0; j < length+2; j++ {
			if ref >= len(out) {
				return nil, errs.ErrInvalidLZFData
			}
			out = append(out, out[ref])
			ref++
		}
	}

	if len(out) != expectedLen {
		return nil, errs.ErrInvalidLZFData
	}

	return out, nil
}
