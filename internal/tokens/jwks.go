package tokens

import (
	"encoding/base64"
	"math/big"
)

// JWK is a single-key JSON Web Key describing this service's RSA public
// signing key.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSet is the standard JWKS envelope.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWKS computes (once) and returns the public key as a single-key JWK
// set. The JWK is cached for the lifetime of the process.
func (c *Codec) JWKS() JWKSet {
	c.jwkOnce.Do(func() {
		c.jwk = JWK{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: KeyID,
			N:   base64.RawURLEncoding.EncodeToString(c.publicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(c.publicKey.E)).Bytes()),
		}
	})
	return JWKSet{Keys: []JWK{c.jwk}}
}
