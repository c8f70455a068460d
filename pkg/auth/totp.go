package auth

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "sealman-ems"

// GenerateTotpSecret creates a new TOTP secret for the given account name.
func GenerateTotpSecret(account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// ValidateTotpCode checks a user-supplied TOTP code against the secret.
func ValidateTotpCode(code, secret string) bool {
	return totp.Validate(code, secret)
}

// ValidateTotpCodeAt is ValidateTotpCode against a fixed point in time,
// used by tests.
func ValidateTotpCodeAt(code, secret string, at time.Time) (bool, error) {
	return totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}
