package signer

import (
	"bytes"
	"crypto/sha256"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/ndn"
)

// CheckAlwaysPass is a checker that accepts any signature, including none.
func CheckAlwaysPass(enc.Name, enc.Wire, ndn.Signature) bool {
	return true
}

// CheckDigestSha256 verifies a DigestSha256 signature.
// Packets without a signature are rejected.
func CheckDigestSha256(name enc.Name, sigCovered enc.Wire, sig ndn.Signature) bool {
	if sig.SigType() != ndn.SignatureDigestSha256 {
		return false
	}
	h := sha256.New()
	for _, buf := range sigCovered {
		if _, err := h.Write(buf); err != nil {
			return false
		}
	}
	return bytes.Equal(h.Sum(nil), sig.SigValue())
}
