// Package mdxcrypt implements the cryptographic primitives of the MDX
// container: the RIPEMD-128 digest used for key derivation, the format's
// proprietary byte-permutation cipher, and the Salsa20 stream cipher
// binding.
package mdxcrypt

import (
	"encoding/binary"
	"hash"
	"math/bits"
)

// RIPEMD-128 digest parameters.
const (
	// Size is the size of a RIPEMD-128 checksum in bytes.
	Size = 16

	// BlockSize is the block size of RIPEMD-128 in bytes.
	BlockSize = 64
)

// digest represents the partial evaluation of a RIPEMD-128 checksum.
type digest struct {
	s   [4]uint32       // running state
	x   [BlockSize]byte // buffered input
	nx  int             // bytes buffered in x
	len uint64          // total input length
}

// NewRIPEMD128 returns a new hash.Hash computing the RIPEMD-128 checksum.
func NewRIPEMD128() hash.Hash {
	d := new(digest)
	d.Reset()
	return d
}

// SumRIPEMD128 returns the RIPEMD-128 checksum of data.
func SumRIPEMD128(data []byte) [Size]byte {
	d := new(digest)
	d.Reset()
	d.Write(data)
	var sum [Size]byte
	d.checkSum(&sum)
	return sum
}

func (d *digest) Reset() {
	d.s = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}
	d.nx = 0
	d.len = 0
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return BlockSize }

func (d *digest) Write(p []byte) (nn int, err error) {
	nn = len(p)
	d.len += uint64(nn)
	if d.nx > 0 {
		n := copy(d.x[d.nx:], p)
		d.nx += n
		if d.nx == BlockSize {
			ripemd128Block(d, d.x[:])
			d.nx = 0
		}
		p = p[n:]
	}
	n := ripemd128Block(d, p)
	p = p[n:]
	if len(p) > 0 {
		d.nx = copy(d.x[:], p)
	}
	return nn, nil
}

func (d *digest) Sum(in []byte) []byte {
	// Make a copy so that the caller can keep writing and summing.
	d0 := *d
	var sum [Size]byte
	d0.checkSum(&sum)
	return append(in, sum[:]...)
}

func (d *digest) checkSum(sum *[Size]byte) {
	// Padding: a single 0x80 byte, then zeros to 56 mod 64, then the
	// message length in bits, little-endian.
	bitLen := d.len << 3
	var tmp [64]byte
	tmp[0] = 0x80
	if d.len%64 < 56 {
		d.Write(tmp[0 : 56-d.len%64])
	} else {
		d.Write(tmp[0 : 64+56-d.len%64])
	}

	binary.LittleEndian.PutUint64(tmp[:8], bitLen)
	d.Write(tmp[0:8])

	for i, v := range d.s {
		binary.LittleEndian.PutUint32(sum[i*4:], v)
	}
}

// Message word permutations and per-step rotations for the two parallel
// lines, four rounds of sixteen steps each.
var (
	wordLeft = [64]uint{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
		7, 4, 13, 1, 10, 6, 15, 3, 12, 0, 9, 5, 2, 14, 11, 8,
		3, 10, 14, 4, 9, 15, 8, 1, 2, 7, 0, 6, 13, 11, 5, 12,
		1, 9, 11, 10, 0, 8, 12, 4, 13, 3, 7, 15, 14, 5, 6, 2,
	}
	rotLeft = [64]uint{
		11, 14, 15, 12, 5, 8, 7, 9, 11, 13, 14, 15, 6, 7, 9, 8,
		7, 6, 8, 13, 11, 9, 7, 15, 7, 12, 15, 9, 11, 7, 13, 12,
		11, 13, 6, 7, 14, 9, 13, 15, 14, 8, 13, 6, 5, 12, 7, 5,
		11, 12, 14, 15, 14, 15, 9, 8, 9, 14, 5, 6, 8, 6, 5, 12,
	}
	wordRight = [64]uint{
		5, 14, 7, 0, 9, 2, 11, 4, 13, 6, 15, 8, 1, 10, 3, 12,
		6, 11, 3, 7, 0, 13, 5, 10, 14, 15, 8, 12, 4, 9, 1, 2,
		15, 5, 1, 3, 7, 14, 6, 9, 11, 8, 12, 2, 10, 0, 4, 13,
		8, 6, 4, 1, 3, 11, 15, 0, 5, 12, 2, 13, 9, 7, 10, 14,
	}
	rotRight = [64]uint{
		8, 9, 9, 11, 13, 15, 15, 5, 7, 7, 8, 11, 14, 14, 12, 6,
		9, 13, 15, 7, 12, 8, 9, 11, 7, 7, 12, 7, 6, 15, 13, 11,
		9, 7, 15, 11, 8, 6, 6, 14, 12, 13, 5, 14, 13, 13, 7, 5,
		15, 5, 8, 11, 14, 14, 6, 14, 6, 9, 12, 9, 12, 5, 15, 8,
	}
)

// Round constants: the left line adds kLeft[round], the right line
// kRight[round].
var (
	kLeft  = [4]uint32{0x00000000, 0x5a827999, 0x6ed9eba1, 0x8f1bbcdc}
	kRight = [4]uint32{0x50a28be6, 0x5c4dd124, 0x6d703ef3, 0x00000000}
)

func ripemd128Block(md *digest, p []byte) int {
	n := 0
	var x [16]uint32
	for len(p) >= BlockSize {
		a, b, c, d := md.s[0], md.s[1], md.s[2], md.s[3]
		aa, bb, cc, dd := a, b, c, d

		for i := 0; i < 16; i++ {
			x[i] = binary.LittleEndian.Uint32(p[i*4:])
		}

		for i := 0; i < 64; i++ {
			round := i >> 4

			// The right line applies the round functions in reverse order.
			var f, g uint32
			switch round {
			case 0:
				f = b ^ c ^ d
				g = (bb & dd) | (cc &^ dd)
			case 1:
				f = (b & c) | (^b & d)
				g = (bb | ^cc) ^ dd
			case 2:
				f = (b | ^c) ^ d
				g = (bb & cc) | (^bb & dd)
			case 3:
				f = (b & d) | (c &^ d)
				g = bb ^ cc ^ dd
			}

			t := bits.RotateLeft32(a+f+x[wordLeft[i]]+kLeft[round], int(rotLeft[i]))
			a, b, c, d = d, t, b, c

			t = bits.RotateLeft32(aa+g+x[wordRight[i]]+kRight[round], int(rotRight[i]))
			aa, bb, cc, dd = dd, t, bb, cc
		}

		t := md.s[1] + c + dd
		md.s[1] = md.s[2] + d + aa
		md.s[2] = md.s[3] + a + bb
		md.s[3] = md.s[0] + b + cc
		md.s[0] = t

		p = p[BlockSize:]
		n += BlockSize
	}
	return n
}
