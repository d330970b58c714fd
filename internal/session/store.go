// Package session holds the organizer's working state: template, render
// configuration, event details, registrations and the certificate log.
// Everything lives in memory for the life of the process.
package session

import (
	"errors"
	"image"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/youruser/certgen/internal/cert"
)

// ErrNoTemplate means the organizer has not uploaded a template yet.
var ErrNoTemplate = errors.New("no certificate template uploaded")

// TemplateInfo describes the active template.
type TemplateInfo struct {
	// Version increases with every upload, starting at 1.
	Version    uint64    `json:"version"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Filename   string    `json:"filename"`
	Bytes      int       `json:"bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Snapshot is a consistent view of the rendering inputs. Template is shared
// and must be treated as read-only.
type Snapshot struct {
	Version    uint64
	Template   image.Image
	Info       TemplateInfo
	Config     cert.RenderConfig
	Event      cert.EventMeta
	Categories []string
}

// HasTemplate reports whether a template was uploaded.
func (s Snapshot) HasTemplate() bool { return s.Template != nil }

// Store is safe for concurrent use. Template, config, event and categories
// change under one version counter so readers never see a mix.
type Store struct {
	mu sync.RWMutex

	version  uint64
	template image.Image
	info     TemplateInfo
	config   cert.RenderConfig
	event    cert.EventMeta

	categories []string
	registered map[string][]string
	logged     map[string]bool
	log        []cert.Record

	passwordHash []byte
	cost         int
}

// Option configures a Store.
type Option func(*Store)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// New returns a store seeded with the default configuration, today's date
// and the default categories. The admin password is hashed immediately.
func New(adminPassword string, now time.Time, opts ...Option) (*Store, error) {
	s := &Store{
		config: cert.DefaultRenderConfig(),
		event: cert.EventMeta{
			Name: cert.DefaultEventName,
			Date: now.Format("2006-01-02"),
		},
		registered: map[string][]string{},
		logged:     map[string]bool{},
		cost:       bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	for _, c := range cert.DefaultCategories {
		s.addCategory(c)
	}
	if err := s.SetPassword(adminPassword); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current rendering inputs.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version:    s.version,
		Template:   s.template,
		Info:       s.info,
		Config:     s.config,
		Event:      s.event,
		Categories: append([]string(nil), s.categories...),
	}
}

// SetTemplate replaces the template. img must not be modified afterwards.
func (s *Store) SetTemplate(img image.Image, filename string, size int, now time.Time) TemplateInfo {
	b := img.Bounds()
	info := TemplateInfo{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Filename:   filename,
		Bytes:      size,
		UploadedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	info.Version = s.info.Version + 1
	s.template = img
	s.info = info
	s.version++
	return info
}

// SetConfig stores cfg after normalizing it and returns what was stored.
func (s *Store) SetConfig(cfg cert.RenderConfig) cert.RenderConfig {
	cfg = cfg.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.version++
	return cfg
}

// SetEvent replaces the event details.
func (s *Store) SetEvent(e cert.EventMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event = e
	s.version++
}

// CheckPassword reports whether pw is the admin password.
func (s *Store) CheckPassword(pw string) bool {
	s.mu.RLock()
	hash := s.passwordHash
	s.mu.RUnlock()
	return bcrypt.CompareHashAndPassword(hash, []byte(pw)) == nil
}

// SetPassword replaces the admin password.
func (s *Store) SetPassword(pw string) error {
	if pw == "" {
		return errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordHash = hash
	return nil
}
