// Package dto provides data transfer objects for the proxy HTTP API.
package dto

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	"github.com/allisson/credproxy/internal/proxy"
	customValidation "github.com/allisson/credproxy/internal/validation"
)

// SetupCredentialsRequest carries plaintext credentials to be encrypted under Password.
// SECURITY: must be transmitted over HTTPS.
type SetupCredentialsRequest struct {
	Password     string `json:"password"`
	EndpointHost string `json:"endpoint_host"`
	AccessKeyID  string `json:"access_key_id"`
	SecretKey    string `json:"secret_key"`
}

// Validate checks if the setup request is valid.
func (r *SetupCredentialsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Password,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 1024),
		),
		validation.Field(&r.EndpointHost,
			validation.Required,
			customValidation.EndpointHost,
		),
		validation.Field(&r.AccessKeyID,
			validation.Required,
			customValidation.AccessKeyID,
		),
		validation.Field(&r.SecretKey,
			validation.Required,
			customValidation.NotBlank,
			customValidation.SecretKey,
			validation.Length(1, 1024),
		),
	)
}

// ToProxyRequest maps the DTO to a proxy request.
func (r *SetupCredentialsRequest) ToProxyRequest() proxy.SetCredsPlaintext {
	return proxy.SetCredsPlaintext{
		Password:     r.Password,
		EndpointHost: r.EndpointHost,
		AccessKeyID:  r.AccessKeyID,
		SecretKey:    r.SecretKey,
	}
}

// UnlockCredentialsRequest unlocks an encrypted bundle. Bundle is the
// base64-encoded bundle JSON; empty means the stored bundle.
type UnlockCredentialsRequest struct {
	Password string `json:"password"`
	Bundle   string `json:"bundle,omitempty"`
}

// Validate checks if the unlock request is valid.
func (r *UnlockCredentialsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
		validation.Field(&r.Bundle, customValidation.Base64),
	)
}

// BundleBytes decodes Bundle. Call Validate first.
func (r *UnlockCredentialsRequest) BundleBytes() []byte {
	if r.Bundle == "" {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(r.Bundle)
	if err != nil {
		return nil
	}
	return decoded
}
