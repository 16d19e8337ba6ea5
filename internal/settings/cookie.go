package settings

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	// CookieName is the fixed key the settings blob is stored under.
	CookieName = "flayyer_studio_settings"

	defaultCookiePath   = "/"
	defaultCookieMaxAge = 365 * 24 * time.Hour
	// DefaultMaxCookieSize is the per-cookie name plus value budget browsers honour.
	DefaultMaxCookieSize = 4096
)

var (
	// ErrInvalidConfig indicates the cookie store was configured with unusable keys.
	ErrInvalidConfig = errors.New("settings: invalid config")
	// ErrTooLarge reports settings whose encoded cookie exceeds the size budget.
	ErrTooLarge = errors.New("too large to remember")
)

// CookieConfig controls encoding and attributes of the settings cookie.
type CookieConfig struct {
	Name     string
	HashKey  []byte
	BlockKey []byte
	Path     string
	Secure   bool
	MaxAge   time.Duration
	// MaxSize caps len(name)+len(value); zero means DefaultMaxCookieSize.
	MaxSize int
}

// CookieStore keeps ViewSettings in a signed browser cookie, the server-side
// counterpart of client local storage.
type CookieStore struct {
	cfg   CookieConfig
	codec *securecookie.SecureCookie
}

// NewCookieStore validates cfg and builds the store. A missing hash key is
// replaced with a random one, so cookies only survive for the process lifetime.
func NewCookieStore(cfg CookieConfig) (*CookieStore, error) {
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(32)
		if cfg.HashKey == nil {
			return nil, fmt.Errorf("%w: unable to generate hash key", ErrInvalidConfig)
		}
	}
	if n := len(cfg.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes, got %d", ErrInvalidConfig, n)
	}
	if cfg.Name == "" {
		cfg.Name = CookieName
	}
	if cfg.Path == "" {
		cfg.Path = defaultCookiePath
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultCookieMaxAge
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxCookieSize
	}

	blockKey := cfg.BlockKey
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(cfg.HashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.MaxAge.Seconds()))
	// The size budget is enforced in Save so callers get ErrTooLarge.
	codec.MaxLength(0)

	return &CookieStore{cfg: cfg, codec: codec}, nil
}

// Load decodes the settings cookie. Absent, expired, tampered or malformed
// cookies report false and yield Default().
func (s *CookieStore) Load(r *http.Request) (ViewSettings, bool) {
	cookie, err := r.Cookie(s.cfg.Name)
	if err != nil || cookie.Value == "" || len(cookie.Value) > s.cfg.MaxSize {
		return Default(), false
	}
	stored := Default()
	if err := s.codec.Decode(s.cfg.Name, cookie.Value, &stored); err != nil {
		return Default(), false
	}
	return stored.Normalize(), true
}

// Save encodes v into the response cookie. Nothing is written when the
// encoded cookie would exceed MaxSize; the error then wraps ErrTooLarge.
func (s *CookieStore) Save(w http.ResponseWriter, v ViewSettings) error {
	encoded, err := s.codec.Encode(s.cfg.Name, v.Normalize())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if size := len(s.cfg.Name) + 1 + len(encoded); size > s.cfg.MaxSize {
		return fmt.Errorf("%w: saved settings need %d bytes, limit is %d", ErrTooLarge, size, s.cfg.MaxSize)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    encoded,
		Path:     s.cfg.Path,
		Secure:   s.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
	})
	return nil
}

// Clear expires the settings cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Name,
		Value:    "",
		Path:     s.cfg.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
