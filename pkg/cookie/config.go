package cookie

import "strings"

// Config holds cookie policy configuration loaded from the environment.
// Secrets is a comma-separated list; the first entry signs new cookies and
// the rest verify cookies signed before a rotation.
type Config struct {
	Secrets string `env:"COOKIE_SECRETS,required"`
	Domain  string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure  bool   `env:"COOKIE_SECURE" envDefault:"true"`
}

// NewFromConfig builds a Manager from environment configuration.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	var secrets []string
	for _, s := range strings.Split(cfg.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}

	all := []Option{WithSecure(cfg.Secure)}
	if cfg.Domain != "" {
		all = append(all, WithDomain(cfg.Domain))
	}
	all = append(all, opts...)

	return New(secrets, all...)
}
