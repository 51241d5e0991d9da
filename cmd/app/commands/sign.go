package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/credproxy/internal/secret"
	"github.com/allisson/credproxy/internal/signer"
)

// SignInput describes the request the sign command reproduces.
type SignInput struct {
	EndpointHost string
	AccessKeyID  string
	Body         []byte
	// Timestamp is an X-Amz-Date value or RFC 3339 time. Empty means now.
	Timestamp string
}

// RunSign prints the signing material the proxy would send for a body. The
// secret key is read from io.Reader. It is meant for comparing against a
// backend's view when a signature is rejected.
func RunSign(
	sig *signer.Signer,
	logger *slog.Logger,
	io IOTuple,
	input SignInput,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	ts, err := parseSignTimestamp(input.Timestamp)
	if err != nil {
		return err
	}

	secretKey, err := newSecretReader(io.Reader).read("Secret key: ")
	if err != nil {
		return err
	}
	if secretKey == "" {
		return fmt.Errorf("secret key cannot be empty")
	}
	keyBuf, err := secret.NewFromString(secretKey)
	if err != nil {
		return fmt.Errorf("failed to hold secret key: %w", err)
	}
	defer func() { _ = keyBuf.Close() }()

	signed := sig.Sign(signer.Input{
		Host:        input.EndpointHost,
		AccessKeyID: input.AccessKeyID,
		SecretKey:   keyBuf,
		Body:        input.Body,
		Timestamp:   ts,
	})

	if format == "json" {
		if err := outputJSON(map[string]string{
			"host":              signed.Host,
			"x_amz_date":        signed.AmzDate,
			"canonical_request": signed.CanonicalRequest,
			"string_to_sign":    signed.StringToSign,
			"signature":         signed.Signature,
			"authorization":     signed.Authorization,
		}, io.Writer); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Canonical request:\n%s\n\n", signed.CanonicalRequest)
		_, _ = fmt.Fprintf(io.Writer, "String to sign:\n%s\n\n", signed.StringToSign)
		_, _ = fmt.Fprintf(io.Writer, "%s: %s\n", signer.HeaderAmzDate, signed.AmzDate)
		_, _ = fmt.Fprintf(io.Writer, "%s: %s\n", signer.HeaderAuthorization, signed.Authorization)
	}

	logger.Debug("request signed",
		slog.String("region", sig.Region()),
		slog.String("service", sig.Service()),
		slog.Int("body_size", len(input.Body)),
	)
	return nil
}

func parseSignTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	if ts, err := time.Parse(signer.AmzDateFormat, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid timestamp: %s (use %s or RFC 3339)", value, signer.AmzDateFormat,
		)
	}
	return ts.UTC(), nil
}
