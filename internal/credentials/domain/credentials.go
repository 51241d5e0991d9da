// Package domain defines the credential models held by the proxy: the
// in-memory plaintext credentials and the encrypted bundle that is the only
// form ever persisted or handed to callers.
package domain

import (
	"github.com/allisson/credproxy/internal/secret"
)

// PlaintextCredentials are the unlocked backend credentials.
//
// They exist only in memory while the proxy is Ready. The secret key sits in
// a guarded buffer; Close wipes it. There is intentionally no serialization.
type PlaintextCredentials struct {
	EndpointHost string
	AccessKeyID  string
	SecretKey    *secret.Buffer
}

// NewPlaintextCredentials copies secretKey into a guarded buffer.
func NewPlaintextCredentials(endpointHost, accessKeyID, secretKey string) (*PlaintextCredentials, error) {
	buf, err := secret.NewFromString(secretKey)
	if err != nil {
		return nil, err
	}

	return &PlaintextCredentials{
		EndpointHost: endpointHost,
		AccessKeyID:  accessKeyID,
		SecretKey:    buf,
	}, nil
}

// Close wipes the secret key. Safe on nil and idempotent.
func (c *PlaintextCredentials) Close() error {
	if c == nil {
		return nil
	}
	return c.SecretKey.Close()
}
