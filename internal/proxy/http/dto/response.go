package dto

import (
	"encoding/base64"

	"github.com/allisson/credproxy/internal/proxy"
)

// StatusResponse reports the proxy status. Bundle is set only right after a
// plaintext setup, so the caller can keep the encrypted bundle.
type StatusResponse struct {
	Status string `json:"status"`
	Bundle string `json:"bundle,omitempty"`
}

// BundleResponse carries the stored encrypted bundle, base64 encoded.
type BundleResponse struct {
	Bundle string `json:"bundle"`
}

// MapStatusToResponse converts a proxy status to an API response.
func MapStatusToResponse(status proxy.Status) StatusResponse {
	return StatusResponse{Status: status.String()}
}

// MapBundleToStatusResponse builds the setup response carrying bundleJSON.
func MapBundleToStatusResponse(bundleJSON []byte) StatusResponse {
	return StatusResponse{
		Status: proxy.StatusCredsEncrypted.String(),
		Bundle: base64.StdEncoding.EncodeToString(bundleJSON),
	}
}

// MapBundleToResponse converts stored bundle JSON to an API response.
func MapBundleToResponse(bundleJSON []byte) BundleResponse {
	return BundleResponse{Bundle: base64.StdEncoding.EncodeToString(bundleJSON)}
}
