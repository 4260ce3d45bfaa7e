package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/spf13/cast"
)

const (
	MinInterval     = 10 * time.Second
	MaxInterval     = 300 * time.Second
	IntervalStep    = 10 * time.Second
	DefaultInterval = 30 * time.Second

	cookieName = "sysdash"
	maxAge     = 30 * 24 * 60 * 60
)

var ErrInvalidInterval = errors.New("invalid refresh interval")

// Config is the per-session UI state. It is created from Default when a
// session starts and only changed through the settings form.
type Config struct {
	DarkMode        bool          `json:"dark_mode"`
	AutoRefresh     bool          `json:"auto_refresh"`
	RefreshInterval time.Duration `json:"refresh_interval"`
}

func Default() Config {
	return Config{RefreshInterval: DefaultInterval}
}

// ValidateInterval accepts 10s to 300s in whole steps of 10s.
func ValidateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval || d%IntervalStep != 0 {
		return fmt.Errorf("%w: %s (want %s..%s in steps of %s)", ErrInvalidInterval, d, MinInterval, MaxInterval, IntervalStep)
	}
	return nil
}

func (c Config) Validate() error { return ValidateInterval(c.RefreshInterval) }

// RefreshSeconds is the interval in the unit the settings form and page use.
func (c Config) RefreshSeconds() int { return int(c.RefreshInterval / time.Second) }

// FromForm reads the settings form. Unchecked boxes are absent from the form.
func FromForm(form url.Values) (Config, error) {
	cfg := Config{
		DarkMode:    cast.ToBool(form.Get("dark_mode")) || form.Get("dark_mode") == "on",
		AutoRefresh: cast.ToBool(form.Get("auto_refresh")) || form.Get("auto_refresh") == "on",
	}
	secs, err := cast.ToIntE(form.Get("refresh_interval"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidInterval, form.Get("refresh_interval"))
	}
	cfg.RefreshInterval = time.Duration(secs) * time.Second
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Store keeps Config in a signed cookie.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore signs cookies with key. An empty key gets a random one, which means
// sessions do not survive a restart.
func NewStore(key []byte, secure bool) *Store {
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// Load returns the session's config, or Default when the request carries no
// valid session cookie.
func (s *Store) Load(r *http.Request) *Config {
	cfg := Default()
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil || sess.IsNew {
		return &cfg
	}
	cfg.DarkMode = cast.ToBool(sess.Values["dark_mode"])
	cfg.AutoRefresh = cast.ToBool(sess.Values["auto_refresh"])
	if secs := cast.ToInt(sess.Values["refresh_interval"]); secs > 0 {
		cfg.RefreshInterval = time.Duration(secs) * time.Second
	}
	if cfg.Validate() != nil {
		cfg.RefreshInterval = DefaultInterval
	}
	return &cfg
}

func (s *Store) Save(w http.ResponseWriter, r *http.Request, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	// Get only fails on a bad cookie; a fresh session replaces it.
	sess, _ := s.cookies.Get(r, cookieName)
	sess.Values["dark_mode"] = cfg.DarkMode
	sess.Values["auto_refresh"] = cfg.AutoRefresh
	sess.Values["refresh_interval"] = cfg.RefreshSeconds()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
