package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
)

// KMSSchemes lists the key URI schemes the blob store can be wrapped with.
var KMSSchemes = []string{"awskms", "azurekeyvault", "base64key", "gcpkms", "hashivault"}

// Keeper wraps stored blobs with an external key. *secrets.Keeper implements it.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens keepers used to add a KMS layer around the persisted
// credential blob.
type KMSService interface {
	// OpenKeeper opens a Keeper for the provider named by keyURI.
	OpenKeeper(ctx context.Context, keyURI string) (Keeper, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	scheme, err := kmsScheme(keyURI)
	if err != nil {
		return nil, err
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s keeper: %w", scheme, err)
	}
	return keeper, nil
}

// kmsScheme returns the scheme of keyURI when it is one of KMSSchemes.
// Errors name the scheme only; a base64key:// URI carries the key itself.
func kmsScheme(keyURI string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(keyURI))
	if err != nil || u.Scheme == "" {
		return "", cryptoDomain.ErrInvalidKMSKeyURI
	}
	scheme := strings.ToLower(u.Scheme)
	if !slices.Contains(KMSSchemes, scheme) {
		return "", fmt.Errorf("%w: scheme %q is not one of %s",
			cryptoDomain.ErrInvalidKMSKeyURI, scheme, strings.Join(KMSSchemes, ", "))
	}
	return scheme, nil
}
