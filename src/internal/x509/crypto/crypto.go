// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509crypto is the cryptographic collaborator consumed by the trust
// store and the chain engine. It hashes encoded objects and verifies or
// produces signatures; the store and engine only ever talk to the Provider
// interface so a hardware-backed provider can be swapped in.
package x509crypto

import (
	"crypto"
	_ "crypto/md5" // registers crypto.MD5
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha1" // registers crypto.SHA1
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/x509"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedHash indicates a digest algorithm that is not linked in.
	ErrUnsupportedHash = errors.New("x509crypto: unsupported hash algorithm")

	// ErrUnsupportedSignature indicates a signature algorithm without a digest mapping.
	ErrUnsupportedSignature = errors.New("x509crypto: unsupported signature algorithm")

	// ErrBadSignature indicates a signature that does not verify.
	ErrBadSignature = errors.New("x509crypto: signature verification failed")
)

// Provider hashes data and verifies or produces signatures.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	Hash(alg crypto.Hash, data []byte) ([]byte, error)
	VerifySignature(pub any, alg x509.SignatureAlgorithm, signed, signature []byte) error
	Sign(priv crypto.Signer, alg x509.SignatureAlgorithm, data []byte) ([]byte, error)
}

// Std is the Provider backed by the Go standard library.
type Std struct{}

// Default is the provider used when callers do not configure one.
var Default Provider = Std{}

// Hash returns the digest of data under alg.
func (Std) Hash(alg crypto.Hash, data []byte) ([]byte, error) {
	if !alg.Available() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, alg)
	}
	h := alg.New()
	h.Write(data)
	return h.Sum(nil), nil
}

// VerifySignature checks signature over signed with the public key pub.
func (Std) VerifySignature(pub any, alg x509.SignatureAlgorithm, signed, signature []byte) error {
	if pub == nil {
		return ErrBadSignature
	}
	holder := &x509.Certificate{PublicKey: pub}
	if err := holder.CheckSignature(alg, signed, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// Sign signs data with priv, hashing first when alg calls for it.
func (Std) Sign(priv crypto.Signer, alg x509.SignatureAlgorithm, data []byte) ([]byte, error) {
	h, ok := signatureHash(alg)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSignature, alg)
	}
	digest := data
	if h != 0 {
		d, err := Std{}.Hash(h, data)
		if err != nil {
			return nil, err
		}
		digest = d
	}
	var opts crypto.SignerOpts = h
	if isPSS(alg) {
		opts = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: h}
	}
	return priv.Sign(rand.Reader, digest, opts)
}

// VerifyIssued reports whether issuer's key produced subject's signature.
func VerifyIssued(p Provider, subject, issuer *x509.Certificate) error {
	if subject == nil || issuer == nil {
		return ErrBadSignature
	}
	return p.VerifySignature(issuer.PublicKey, subject.SignatureAlgorithm, subject.RawTBSCertificate, subject.Signature)
}

func signatureHash(alg x509.SignatureAlgorithm) (crypto.Hash, bool) {
	switch alg {
	case x509.SHA1WithRSA, x509.ECDSAWithSHA1:
		return crypto.SHA1, true
	case x509.SHA256WithRSA, x509.ECDSAWithSHA256, x509.SHA256WithRSAPSS:
		return crypto.SHA256, true
	case x509.SHA384WithRSA, x509.ECDSAWithSHA384, x509.SHA384WithRSAPSS:
		return crypto.SHA384, true
	case x509.SHA512WithRSA, x509.ECDSAWithSHA512, x509.SHA512WithRSAPSS:
		return crypto.SHA512, true
	case x509.PureEd25519:
		return 0, true
	}
	return 0, false
}

func isPSS(alg x509.SignatureAlgorithm) bool {
	switch alg {
	case x509.SHA256WithRSAPSS, x509.SHA384WithRSAPSS, x509.SHA512WithRSAPSS:
		return true
	}
	return false
}
