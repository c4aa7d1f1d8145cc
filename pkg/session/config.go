package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// UnsetMode decides what happens to a stored session when a handler unsets it.
type UnsetMode string

const (
	// UnsetKeep leaves the stored session untouched.
	UnsetKeep UnsetMode = "keep"
	// UnsetDestroy removes the stored session at the end of the request.
	UnsetDestroy UnsetMode = "destroy"
)

// Config holds session configuration
type Config struct {
	// Name is the name of the session cookie (default: "connect.sid")
	Name string `env:"SESSION_COOKIE_NAME" envDefault:"connect.sid" validate:"required,printascii,excludesall=;=,max=256"`

	// Secrets sign the session cookie. The first one signs, all of them verify.
	Secrets []string `env:"SESSION_SECRETS" envSeparator:"," validate:"dive,min=32"`

	// IDGenerator is one of "uuid", "ksuid" or "token"
	IDGenerator string `env:"SESSION_ID_GENERATOR" envDefault:"uuid" validate:"omitempty,oneof=uuid ksuid token"`

	// Proxy trusts X-Forwarded-Proto when deciding whether a request is secure
	Proxy bool `env:"SESSION_PROXY" envDefault:"false"`

	// Resave rewrites sessions even when they were not modified
	Resave bool `env:"SESSION_RESAVE" envDefault:"false"`

	// Rolling re-issues the cookie on every response, resetting its expiry
	Rolling bool `env:"SESSION_ROLLING" envDefault:"false"`

	// SaveUninitialized persists new sessions the application never modified
	SaveUninitialized bool `env:"SESSION_SAVE_UNINITIALIZED" envDefault:"true"`

	// Unset is "keep" or "destroy"
	Unset string `env:"SESSION_UNSET" envDefault:"keep" validate:"oneof=keep destroy"`

	CookiePath        string        `env:"SESSION_COOKIE_PATH" envDefault:"/" validate:"omitempty,startswith=/"`
	CookieDomain      string        `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	CookieHTTPOnly    bool          `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSecure      string        `env:"SESSION_COOKIE_SECURE" envDefault:"false"` // true, false or auto
	CookieSameSite    string        `env:"SESSION_COOKIE_SAME_SITE" envDefault:"lax"`
	CookiePriority    string        `env:"SESSION_COOKIE_PRIORITY" envDefault:""`
	CookiePartitioned bool          `env:"SESSION_COOKIE_PARTITIONED" envDefault:"false"`
	CookieMaxAge      time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"0" validate:"gte=0"` // 0 = browser-session cookie
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		Name:              "connect.sid",
		IDGenerator:       "uuid",
		SaveUninitialized: true,
		Unset:             string(UnsetKeep),
		CookiePath:        "/",
		CookieHTTPOnly:    true,
		CookieSecure:      "false",
		CookieSameSite:    "lax",
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the structural rules declared in the validate tags.
// Attribute values with several accepted spellings (secure, sameSite,
// priority) are checked by CookieOptions.
func (c Config) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			return errors.Join(ErrConfiguration, err)
		}
		return nil
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q rule", fe.Namespace(), fe.Tag()))
	}
	return errors.Join(ErrConfiguration, errors.Join(errs...))
}

// CookieOptions converts the cookie fields into CookieOptions.
func (c Config) CookieOptions() (CookieOptions, error) {
	secure, err1 := ParseSecureMode(c.CookieSecure)
	sameSite, err2 := ParseSameSite(c.CookieSameSite)
	priority, err3 := ParsePriority(c.CookiePriority)
	if err := errors.Join(err1, err2, err3); err != nil {
		return CookieOptions{}, errors.Join(ErrConfiguration, err)
	}

	return CookieOptions{
		Path:        c.CookiePath,
		Domain:      c.CookieDomain,
		HTTPOnly:    c.CookieHTTPOnly,
		Secure:      secure,
		SameSite:    sameSite,
		Priority:    priority,
		Partitioned: c.CookiePartitioned,
		MaxAge:      c.CookieMaxAge,
	}, nil
}

// NewFromConfig creates a new Manager from the provided Config.
// Options passed after the config take precedence over it.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cookieOpts, err := cfg.CookieOptions()
	if err != nil {
		return nil, err
	}
	genID, err := GeneratorByName(cfg.IDGenerator)
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithName(cfg.Name),
		WithGenID(genID),
		WithProxy(cfg.Proxy),
		WithResave(cfg.Resave),
		WithRolling(cfg.Rolling),
		WithSaveUninitialized(cfg.SaveUninitialized),
		WithUnset(UnsetMode(cfg.Unset)),
		WithCookie(cookieOpts),
	}
	if len(cfg.Secrets) > 0 {
		configOpts = append(configOpts, WithSecrets(cfg.Secrets...))
	}

	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
