package mdxcrypt

import (
	"golang.org/x/crypto/salsa20"
)

// fastCipherSeed is the initial chaining byte of the fast cipher.
const fastCipherSeed = 0x36

// FastDecrypt reverses the container's byte-permutation cipher. Each
// output byte is the nibble-swapped input byte XORed with the previous
// ciphertext byte, the low 8 bits of the index, and the repeating key.
// The chaining byte is taken from the ciphertext, so a single pass
// inverts the writer-side transform.
func FastDecrypt(data, key []byte) []byte {
	out := make([]byte, len(data))
	prev := byte(fastCipherSeed)
	for i, b := range data {
		t := b>>4 | b<<4
		t ^= prev ^ byte(i) ^ key[i%len(key)]
		prev = b
		out[i] = t
	}
	return out
}

// StreamDecrypt applies the Salsa20 keystream with an all-zero 8-byte
// nonce. The 16-byte derived key is doubled to fill the cipher's 256-bit
// key.
func StreamDecrypt(data, key []byte) []byte {
	var k [32]byte
	copy(k[:Size], key)
	copy(k[Size:], key)

	out := make([]byte, len(data))
	var nonce [8]byte
	salsa20.XORKeyStream(out, data, nonce[:], &k)
	return out
}

// BlockKey derives the cipher key for an encrypted key or record block:
// the RIPEMD-128 digest of the checksum bytes of its 8-byte prefix.
func BlockKey(checksum []byte) []byte {
	sum := SumRIPEMD128(checksum)
	return sum[:]
}

// InfoKey derives the key-block-info cipher key: the RIPEMD-128 digest of
// the checksum bytes followed by the fixed word 0x3695, little-endian.
func InfoKey(checksum []byte) []byte {
	buf := make([]byte, 0, 8)
	buf = append(buf, checksum...)
	buf = append(buf, 0x95, 0x36, 0x00, 0x00)
	sum := SumRIPEMD128(buf)
	return sum[:]
}
