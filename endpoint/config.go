package endpoint

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emmanuelhcpk/wolmo-networking/security"
)

// DefaultTimeout is the per-request timeout applied when none is configured.
const DefaultTimeout = 30 * time.Second

// Config is the static description of the remote API.
type Config struct {
	// Secure selects https over http.
	Secure bool `yaml:"secure" mapstructure:"secure"`
	// Host is the domain name or address of the API.
	Host string `yaml:"host" mapstructure:"host"`
	// Port is the TCP port. 0 leaves it out of the URL.
	Port int `yaml:"port" mapstructure:"port"`
	// SubPath is prepended to every request path. It must start with "/".
	SubPath string `yaml:"sub_path" mapstructure:"sub_path"`
	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// UsePinning enables certificate pinning against Pins.
	UsePinning bool `yaml:"use_pinning" mapstructure:"use_pinning"`
	// Pins are base64 SHA-256 SPKI fingerprints accepted when UsePinning is set.
	Pins []string `yaml:"pins" mapstructure:"pins"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks that the configuration assembles into a usable base URL.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("endpoint: host is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("endpoint: port %d out of range", c.Port)
	}
	if c.SubPath != "" && !strings.HasPrefix(c.SubPath, "/") {
		return fmt.Errorf("endpoint: sub_path %q must start with /", c.SubPath)
	}
	if c.UsePinning {
		if len(c.Pins) == 0 {
			return fmt.Errorf("endpoint: use_pinning requires at least one pin")
		}
		if _, err := security.NewPinSet(c.Pins); err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
	}
	if _, err := c.baseURL(); err != nil {
		return err
	}
	return nil
}

// Scheme returns "https" when Secure is set and "http" otherwise.
func (c Config) Scheme() string {
	if c.Secure {
		return "https"
	}
	return "http"
}

// BaseURL returns scheme://host[:port][subPath]. It panics when the fields do
// not assemble into a valid absolute URL; call Validate at load time to get an
// error instead.
func (c Config) BaseURL() *url.URL {
	u, err := c.baseURL()
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the base URL, or an empty string when it is invalid.
func (c Config) String() string {
	u, err := c.baseURL()
	if err != nil {
		return ""
	}
	return u.String()
}

func (c Config) baseURL() (*url.URL, error) {
	raw := c.Scheme() + "://" + c.Host
	if c.Port > 0 {
		raw += ":" + strconv.Itoa(c.Port)
	}
	raw += c.SubPath

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("endpoint: invalid base URL %q: %w", raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("endpoint: base URL %q is not absolute", raw)
	}
	return u, nil
}

// Resolve joins path onto the base URL and attaches query. Duplicate slashes at
// the join point are collapsed and the sub-path is kept. Dot segments are
// resolved, but a path that climbs above the sub-path is an error.
func (c Config) Resolve(path string, query url.Values) (*url.URL, error) {
	base, err := c.baseURL()
	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("endpoint: invalid path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("endpoint: path %q must be relative", path)
	}

	u := *base
	if u.Path == "" {
		u.Path = "/"
	}
	if ref.Path != "" {
		basePath := u.Path
		u = *u.JoinPath(ref.EscapedPath())
		if !withinBase(u.Path, basePath) {
			return nil, fmt.Errorf("endpoint: path %q escapes %q", path, basePath)
		}
	}
	q := ref.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return &u, nil
}

func withinBase(p, base string) bool {
	base = strings.TrimSuffix(base, "/")
	return p == base || strings.HasPrefix(p, base+"/")
}

// TLS returns the TLS settings implied by the pinning fields, or nil when
// pinning is off.
func (c Config) TLS() *security.TLSConfig {
	if !c.Secure || !c.UsePinning {
		return nil
	}
	return &security.TLSConfig{
		ServerName: c.Host,
		Pins:       append([]string(nil), c.Pins...),
	}
}
