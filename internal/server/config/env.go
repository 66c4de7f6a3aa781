package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays the GOPHAUTH_* variables named in the struct tags.
// Unset variables leave the current value alone.
func parseEnv(cfg *Config) error {
	return cleanenv.ReadEnv(cfg)
}
