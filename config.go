package authkit

// Audience selects between the TTL and URL profiles the original
// clients use. The app profile is opted into with the x-app-key header;
// everything else is web.
type Audience string

const (
	// AudienceWeb is the default profile
	AudienceWeb Audience = "web"
	// AudienceApp is the mobile-app profile
	AudienceApp Audience = "app"
)

// Default TTLs in minutes, applied when a profile leaves them unset.
const (
	DefaultAccessTTL        = 60
	DefaultRefreshTTL       = 1440
	DefaultPasswordResetTTL = 60
	DefaultSignupTTL        = 1440
)

// Config holds auth options. It is read-only after startup; issuer and
// validator take it at construction, never from ambient state.
type Config interface {
	GetSigningKey() string
	GetTransportKey() string
	GetIssuer() string
	GetAccessTTL(aud Audience) int
	GetRefreshTTL(aud Audience) int
	GetPasswordResetTTL() int
	GetSignupTTL() int
	GetAppKey() string
	GetBaseURL() string
}

// SimpleConfig is an immutable value implementation of Config. TTLs are
// minutes; zero values fall back to the defaults above.
type SimpleConfig struct {
	SigningKey       string
	TransportKey     string
	Issuer           string
	AppKey           string
	BaseURL          string
	AccessTTL        int
	AppAccessTTL     int
	RefreshTTL       int
	AppRefreshTTL    int
	PasswordResetTTL int
	SignupTTL        int
}

var _ Config = SimpleConfig{}

func (c SimpleConfig) GetSigningKey() string   { return c.SigningKey }
func (c SimpleConfig) GetTransportKey() string { return c.TransportKey }
func (c SimpleConfig) GetIssuer() string       { return c.Issuer }
func (c SimpleConfig) GetAppKey() string       { return c.AppKey }
func (c SimpleConfig) GetBaseURL() string      { return c.BaseURL }

func (c SimpleConfig) GetAccessTTL(aud Audience) int {
	ttl := c.AccessTTL
	if aud == AudienceApp {
		ttl = c.AppAccessTTL
	}
	if ttl <= 0 {
		return DefaultAccessTTL
	}
	return ttl
}

func (c SimpleConfig) GetRefreshTTL(aud Audience) int {
	ttl := c.RefreshTTL
	if aud == AudienceApp {
		ttl = c.AppRefreshTTL
	}
	if ttl <= 0 {
		return DefaultRefreshTTL
	}
	return ttl
}

func (c SimpleConfig) GetPasswordResetTTL() int {
	if c.PasswordResetTTL <= 0 {
		return DefaultPasswordResetTTL
	}
	return c.PasswordResetTTL
}

func (c SimpleConfig) GetSignupTTL() int {
	if c.SignupTTL <= 0 {
		return DefaultSignupTTL
	}
	return c.SignupTTL
}
