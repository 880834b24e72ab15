package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	sessionCookie   = "session"
	sessionSubject  = "dashboard"
	defaultTTL      = 7 * 24 * time.Hour
	loginAttempts   = 5
	loginWindow     = 15 * time.Minute
	maxTrackedPeers = 4096
)

var (
	errMissingSession   = errors.New("missing session")
	errBadAuthorization = errors.New("bad auth header")
	errWrongPIN         = errors.New("wrong pin")
	errRateLimited      = errors.New("too many attempts")
)

// Sessions issues and verifies dashboard session tokens after a PIN login.
type Sessions struct {
	secret []byte
	pin    []byte
	ttl    time.Duration
	secure bool
	parser *jwt.Parser
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*peerLimiter
}

// peerLimiter allows loginAttempts within a fixed window opened by the first attempt.
// A zero refill rate keeps the bucket empty until the window is replaced.
type peerLimiter struct {
	limiter *rate.Limiter
	start   time.Time
}

// NewSessions creates a session issuer. A non-positive ttl defaults to seven days.
func NewSessions(secret, pin string, ttl time.Duration, secureCookie bool) *Sessions {
	if secret == "" {
		panic("session secret must be set")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Sessions{
		secret:   []byte(secret),
		pin:      []byte(pin),
		ttl:      ttl,
		secure:   secureCookie,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		now:      time.Now,
		limiters: make(map[string]*peerLimiter),
	}
}

// CheckPIN verifies pin for a login attempt from peer. Every attempt counts towards
// the peer's limit.
func (s *Sessions) CheckPIN(peer, pin string) error {
	if !s.allow(peer) {
		return errRateLimited
	}
	if pin == "" || len(s.pin) == 0 {
		return errWrongPIN
	}
	if subtle.ConstantTimeCompare([]byte(pin), s.pin) != 1 {
		return errWrongPIN
	}
	return nil
}

func (s *Sessions) allow(peer string) bool {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.limiters) >= maxTrackedPeers {
		for k, l := range s.limiters {
			if now.Sub(l.start) >= loginWindow {
				delete(s.limiters, k)
			}
		}
	}
	l, ok := s.limiters[peer]
	if !ok || now.Sub(l.start) >= loginWindow {
		l = &peerLimiter{limiter: rate.NewLimiter(0, loginAttempts), start: now}
		s.limiters[peer] = l
	}
	return l.limiter.AllowN(now, 1)
}

// Issue signs a new session token.
func (s *Sessions) Issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// UserIDFromToken validates a session token and returns its subject.
func (s *Sessions) UserIDFromToken(token string) (string, error) {
	if token == "" {
		return "", errMissingSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.ExpiresAt == nil {
		return "", errors.New("token without expiry")
	}
	if claims.Subject == "" {
		return "", errors.New("missing sub")
	}
	return claims.Subject, nil
}

// UserIDFromRequest reads the session cookie, falling back to a bearer token.
func (s *Sessions) UserIDFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return s.UserIDFromToken(c.Value)
	}
	h := r.Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", errMissingSession
	}
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}
	return s.UserIDFromToken(token)
}

// Cookie wraps a session token for the browser.
func (s *Sessions) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie() *http.Cookie {
	c := s.Cookie("")
	c.MaxAge = -1
	return c
}

func bearerToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
