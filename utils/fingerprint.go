package utils

import (
	"bytes"
	"encoding/json"
	"unicode/utf16"
)

const fingerprintAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// FingerprintLength Number of symbols in every fingerprint
const FingerprintLength = 8

// Hash Short change-detection hash of a string.
// The accumulator is the 32-bit signed rolling hash (acc*31 + code unit) over the
// UTF-16 code units of str, emitted least-significant symbol first.
// Not collision resistant.
func Hash(str string) string {
	var acc int32
	for _, unit := range utf16.Encode([]rune(str)) {
		acc = acc*31 + int32(unit)
	}

	size := int32(len(fingerprintAlphabet))
	res := make([]byte, FingerprintLength)
	for i := range res {
		quotient := acc / size
		digit := acc - quotient*size
		if digit < 0 {
			digit = -digit
		}
		res[i] = fingerprintAlphabet[digit]
		acc = quotient
	}
	return string(res)
}

// Fingerprint Hash the JSON serialization of value.
// Key order follows encoding/json, so maps are sorted and structs follow field order.
// A value that cannot be serialized hashes like the empty string.
func Fingerprint(value interface{}) string {
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return Hash("")
	}
	return Hash(string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))))
}
