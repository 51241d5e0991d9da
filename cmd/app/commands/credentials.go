package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	validation "github.com/jellydator/validation"

	credentialsDomain "github.com/allisson/credproxy/internal/credentials/domain"
	credentialsUsecase "github.com/allisson/credproxy/internal/credentials/usecase"
	cryptoDomain "github.com/allisson/credproxy/internal/crypto/domain"
	cryptoService "github.com/allisson/credproxy/internal/crypto/service"
	customValidation "github.com/allisson/credproxy/internal/validation"
)

// recommendedPassword is the bar below which encrypt-credentials warns.
var recommendedPassword = customValidation.PasswordStrength{MinLength: 12, MinScore: 3}

// RunEncryptCredentials seals backend credentials under a password and
// persists the bundle in the configured store.
//
// The secret key, the password and its confirmation are read from io.Reader,
// in that order. The base64 bundle is printed so it can also be passed to
// POST /v1/credentials/unlock directly.
func RunEncryptCredentials(
	ctx context.Context,
	vault cryptoService.Vault,
	store credentialsUsecase.CredentialStore,
	logger *slog.Logger,
	io IOTuple,
	endpointHost string,
	accessKeyID string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if err := validation.Validate(endpointHost, validation.Required, customValidation.EndpointHost); err != nil {
		return fmt.Errorf("invalid endpoint host: %w", customValidation.WrapValidationError(err))
	}
	if err := validation.Validate(accessKeyID, validation.Required, customValidation.AccessKeyID); err != nil {
		return fmt.Errorf("invalid access key id: %w", customValidation.WrapValidationError(err))
	}

	secrets := newSecretReader(io.Reader)

	secretKey, err := secrets.read("Secret key: ")
	if err != nil {
		return err
	}
	err = validation.Validate(secretKey,
		validation.Required,
		customValidation.NotBlank,
		customValidation.SecretKey,
	)
	if err != nil {
		return fmt.Errorf("invalid secret key: %w", customValidation.WrapValidationError(err))
	}

	password, err := secrets.readNewPassword()
	if err != nil {
		return err
	}
	if err := validation.Validate(password, validation.Required, customValidation.NotBlank); err != nil {
		return fmt.Errorf("invalid password: %w", customValidation.WrapValidationError(err))
	}

	var weakness string
	if err := validation.Validate(password, recommendedPassword); err != nil {
		weakness = err.Error()
		logger.Warn("weak credentials password", slog.String("reason", weakness))
	}

	bundleJSON, err := sealCredentials(vault, password, endpointHost, accessKeyID, secretKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := store.Save(ctx, bundleJSON); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	bundleB64 := base64.StdEncoding.EncodeToString(bundleJSON)
	if format == "json" {
		result := map[string]string{
			"status": "creds_encrypted",
			"bundle": bundleB64,
		}
		if weakness != "" {
			result["warning"] = weakness
		}
		if err := outputJSON(result, io.Writer); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(io.Writer, "Credentials encrypted and stored.")
		_, _ = fmt.Fprintf(io.Writer, "Bundle: %s\n", bundleB64)
		if weakness != "" {
			_, _ = fmt.Fprintf(io.Writer, "\nWARNING: %s\n", weakness)
		}
	}

	logger.Info("credentials encrypted",
		slog.String("endpoint_host", endpointHost),
		slog.Int("bundle_size", len(bundleJSON)),
	)
	return nil
}

// RunVerifyCredentials checks that a password opens a bundle without
// starting the proxy. An empty bundleB64 verifies the stored bundle. Only the
// endpoint host and access key id are printed.
func RunVerifyCredentials(
	ctx context.Context,
	vault cryptoService.Vault,
	store credentialsUsecase.CredentialStore,
	logger *slog.Logger,
	io IOTuple,
	bundleB64 string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var bundleJSON []byte
	if bundleB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(bundleB64)
		if err != nil {
			return fmt.Errorf("invalid bundle: must be base64 encoded")
		}
		bundleJSON = decoded
	} else {
		stored, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load stored credentials: %w", err)
		}
		bundleJSON = stored
	}

	bundle, err := credentialsDomain.UnmarshalBundle(bundleJSON)
	if err != nil {
		return fmt.Errorf("invalid bundle: %w", err)
	}
	salt, err := cryptoDomain.DecodeSalt(bundle.SaltB64)
	if err != nil {
		return fmt.Errorf("invalid bundle: %w", err)
	}

	password, err := newSecretReader(io.Reader).read("Password: ")
	if err != nil {
		return err
	}

	key, err := vault.DeriveKey(password, salt)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer func() { _ = key.Close() }()

	creds, err := vault.DecryptCredentials(bundle, key)
	if err != nil {
		logger.Warn("credentials verification failed")
		return fmt.Errorf("failed to unlock credentials: %w", err)
	}
	defer func() { _ = creds.Close() }()

	if format == "json" {
		if err := outputJSON(map[string]string{
			"status":        "ok",
			"endpoint_host": creds.EndpointHost,
			"access_key_id": creds.AccessKeyID,
		}, io.Writer); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(io.Writer, "Credentials unlocked successfully.")
		_, _ = fmt.Fprintf(io.Writer, "Endpoint host: %s\n", creds.EndpointHost)
		_, _ = fmt.Fprintf(io.Writer, "Access key ID: %s\n", creds.AccessKeyID)
	}

	logger.Info("credentials verified", slog.String("endpoint_host", creds.EndpointHost))
	return nil
}

// sealCredentials derives a key under a fresh salt and returns the bundle JSON.
func sealCredentials(
	vault cryptoService.Vault,
	password, endpointHost, accessKeyID, secretKey string,
) ([]byte, error) {
	salt, err := vault.NewSalt()
	if err != nil {
		return nil, err
	}

	key, err := vault.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = key.Close() }()

	creds, err := credentialsDomain.NewPlaintextCredentials(endpointHost, accessKeyID, secretKey)
	if err != nil {
		return nil, err
	}
	defer func() { _ = creds.Close() }()

	bundle, err := vault.EncryptCredentials(creds, key)
	if err != nil {
		return nil, err
	}
	return bundle.Marshal()
}
