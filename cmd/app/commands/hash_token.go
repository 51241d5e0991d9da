package commands

import (
	"fmt"
	"log/slog"

	authService "github.com/allisson/credproxy/internal/auth/service"
)

// RunHashToken prints an API_TOKEN_HASH value. With an empty token a new
// random token is generated and printed alongside its hash; the plain token
// is shown only once.
func RunHashToken(
	tokenService authService.APITokenService,
	logger *slog.Logger,
	io IOTuple,
	token string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	generated := token == ""

	var hash string
	var err error
	if generated {
		token, hash, err = tokenService.GenerateToken()
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
	} else {
		hash, err = tokenService.HashToken(token)
		if err != nil {
			return fmt.Errorf("failed to hash token: %w", err)
		}
	}

	if format == "json" {
		result := map[string]string{"hash": hash}
		if generated {
			result["token"] = token
		}
		if err := outputJSON(result, io.Writer); err != nil {
			return err
		}
	} else {
		if generated {
			_, _ = fmt.Fprintf(io.Writer, "Token: %s\n", token)
		}
		_, _ = fmt.Fprintf(io.Writer, "API_TOKEN_HASH=%s\n", hash)
		if generated {
			_, _ = fmt.Fprintln(io.Writer, "\nIMPORTANT: The token is shown only once. Store it securely.")
		}
	}

	logger.Info("api token hashed", slog.Bool("generated", generated))
	return nil
}
