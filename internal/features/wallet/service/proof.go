package service

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"

	"github.com/xssnick/tonutils-go/address"
)

const (
	proofItemPrefix = "ton-proof-item-v2/"
	connectPrefix   = "ton-connect"
)

// proofDigest rebuilds the hash a TON Connect wallet signs for a ton_proof:
//
//	message = "ton-proof-item-v2/" | workchain (int32 BE) | address hash |
//	          domain length (uint32 LE) | domain | timestamp (uint64 LE) | payload
//	digest  = sha256(0xffff | "ton-connect" | sha256(message))
func proofDigest(addr *address.Address, domain string, timestamp int64, payload string) []byte {
	msg := make([]byte, 0, len(proofItemPrefix)+4+32+4+len(domain)+8+len(payload))
	msg = append(msg, proofItemPrefix...)
	msg = binary.BigEndian.AppendUint32(msg, uint32(addr.Workchain()))
	msg = append(msg, addr.Data()...)
	msg = binary.LittleEndian.AppendUint32(msg, uint32(len(domain)))
	msg = append(msg, domain...)
	msg = binary.LittleEndian.AppendUint64(msg, uint64(timestamp))
	msg = append(msg, payload...)
	msgHash := sha256.Sum256(msg)

	full := make([]byte, 0, 2+len(connectPrefix)+len(msgHash))
	full = append(full, 0xff, 0xff)
	full = append(full, connectPrefix...)
	full = append(full, msgHash[:]...)
	digest := sha256.Sum256(full)
	return digest[:]
}

func verifyProof(key ed25519.PublicKey, addr *address.Address, domain string, timestamp int64, payload string, signature []byte) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(key, proofDigest(addr, domain, timestamp, payload), signature)
}

// parseAddress accepts raw ("0:<hex>") and user-friendly forms.
func parseAddress(s string) (*address.Address, error) {
	if addr, err := address.ParseAddr(s); err == nil {
		return addr, nil
	}
	return address.ParseRawAddr(s)
}
