package domain

import (
	"encoding/base64"
	"encoding/json"

	"github.com/allisson/credproxy/internal/errors"
)

// BlobKey is the fixed logical key the persisted bundle is stored under.
const BlobKey = "aws_credentials"

// ErrMalformedBlob indicates persisted or submitted bundle bytes that cannot
// be decoded. Callers treat it as "no stored credentials".
var ErrMalformedBlob = errors.Wrap(errors.ErrInvalidInput, "malformed credential bundle")

// EncryptedBundle is the encrypted form of PlaintextCredentials.
//
// Each credential field is an EncField: base64(nonce) + ":" + base64(ciphertext||tag).
// The JSON names are the stored wire format and must not change.
type EncryptedBundle struct {
	SaltB64      string `json:"salt"`
	EndpointHost string `json:"lambda_host"`
	AccessKeyID  string `json:"key_id"`
	SecretKey    string `json:"access_key"`
}

// Marshal returns the JSON form carried by SetCredsEncrypted and
// Status(CredsEncrypted).
func (b *EncryptedBundle) Marshal() ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBundle parses the JSON form. Any field left empty is rejected so a
// truncated bundle never reaches the vault.
func UnmarshalBundle(data []byte) (*EncryptedBundle, error) {
	var bundle EncryptedBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, errors.Wrap(ErrMalformedBlob, err.Error())
	}

	if bundle.SaltB64 == "" || bundle.EndpointHost == "" || bundle.AccessKeyID == "" || bundle.SecretKey == "" {
		return nil, errors.Wrap(ErrMalformedBlob, "missing field")
	}

	return &bundle, nil
}

// EncodeBlob wraps bundle JSON for the blob store: standard base64 text.
func EncodeBlob(bundleJSON []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(bundleJSON))
}

// DecodeBlob unwraps a stored blob back to bundle JSON and checks that it
// parses as a bundle.
func DecodeBlob(blob []byte) ([]byte, error) {
	bundleJSON, err := base64.StdEncoding.DecodeString(string(blob))
	if err != nil {
		return nil, errors.Wrap(ErrMalformedBlob, "invalid base64")
	}

	if _, err := UnmarshalBundle(bundleJSON); err != nil {
		return nil, err
	}

	return bundleJSON, nil
}
