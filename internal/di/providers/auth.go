package providers

import (
	"github.com/samber/do/v2"

	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.KeyPath())
	if err != nil {
		return nil, err
	}
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"path", cfg.KeyPath(),
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(authKey, cfg.Auth.AccessTokenDuration)
}

// ProvideHasher provides the credential hasher. New hashes use argon2id;
// stored PBKDF2 hashes still verify.
func ProvideHasher(i do.Injector) (*auth.CredentialHasher, error) {
	return auth.DefaultCredentialHasher(), nil
}
