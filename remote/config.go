package remote

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authflow/internal/transport"
)

// Paths are the endpoint paths joined to Config.BaseURL.
type Paths struct {
	InvitationRequired string `env:"INVITATION_REQUIRED"`
	InvitationValidate string `env:"INVITATION_VALIDATE"`
	SendCode           string `env:"SEND_CODE"`
	Verify             string `env:"VERIFY"`
	Logout             string `env:"LOGOUT"`
}

func DefaultPaths() Paths {
	return Paths{
		InvitationRequired: "/api/invitation/required",
		InvitationValidate: "/api/invitation/validate",
		SendCode:           "/api/auth/send-code",
		Verify:             "/api/auth/verify",
		Logout:             "/api/auth/logout",
	}
}

// Config configures a Client.
type Config struct {
	BaseURL    string        `env:"BASE_URL"`
	Timeout    time.Duration `env:"TIMEOUT"`
	DNSCache   bool          `env:"DNS_CACHE"`
	DNSRefresh time.Duration `env:"DNS_REFRESH"`
	Paths      Paths         `envPrefix:"PATH_"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://127.0.0.1:8080",
		Timeout:    transport.DefaultTimeout,
		DNSCache:   true,
		DNSRefresh: transport.DefaultDNSRefresh,
		Paths:      DefaultPaths(),
	}
}

// Validate checks the base URL and that every path is absolute.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("remote BaseURL must be an absolute http(s) URL")
	}
	if c.Timeout <= 0 {
		return errors.New("remote Timeout must be > 0")
	}
	for _, p := range []string{
		c.Paths.InvitationRequired,
		c.Paths.InvitationValidate,
		c.Paths.SendCode,
		c.Paths.Verify,
		c.Paths.Logout,
	} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("remote paths must start with /")
		}
	}
	return nil
}

func (c Config) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
