// Package api exposes the certificate generator over HTTP: the organizer
// dashboard and its admin API, plus the public self-service page.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certgen/internal/bulk"
	"github.com/youruser/certgen/internal/cert"
	"github.com/youruser/certgen/internal/config"
	imagepkg "github.com/youruser/certgen/internal/image"
	"github.com/youruser/certgen/internal/link"
	"github.com/youruser/certgen/internal/pdf"
	"github.com/youruser/certgen/internal/session"
)

const msgTryLater = "Certificates are not available yet. Please try again later."

// Handler serves every route. It holds no request state of its own.
type Handler struct {
	cfg   config.App
	store *session.Store
	fonts *imagepkg.FontResolver
	pdf   *pdf.Packager
	jobs  *bulk.Manager
	now   func() time.Time
}

// New wires a Handler from its collaborators.
func New(cfg config.App, store *session.Store, fonts *imagepkg.FontResolver, packager *pdf.Packager, jobs *bulk.Manager) *Handler {
	return &Handler{
		cfg:   cfg,
		store: store,
		fonts: fonts,
		pdf:   packager,
		jobs:  jobs,
		now:   time.Now,
	}
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoTemplate):
		return http.StatusConflict
	case errors.Is(err, ErrRenderTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, bulk.ErrEmptyRun):
		return http.StatusBadRequest
	case errors.Is(err, bulk.ErrTooManyNames):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, bulk.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, bulk.ErrJobNotDone):
		return http.StatusConflict
	case errors.Is(err, imagepkg.ErrTemplateFormat), errors.Is(err, imagepkg.ErrTemplateSize),
		errors.Is(err, cert.ErrCategoryName):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func failErr(c *gin.Context, err error) {
	fail(c, statusFor(err), err.Error())
}

// attachment sends body as a download named filename.
func attachment(c *gin.Context, contentType, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

// fileSafe turns an event or person name into something usable in a
// download filename.
func fileSafe(s, fallback string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		case ' ':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return fallback
	}
	return s
}

// organizerPage renders the dashboard. Old QR codes point at /?page=cert,
// so those requests are sent on to the self-service page with their query.
func (h *Handler) organizerPage(c *gin.Context) {
	if c.Query(link.KeyPage) == link.PageCert {
		c.Redirect(http.StatusFound, "/cert?"+c.Request.URL.RawQuery)
		return
	}
	snap := h.store.Snapshot()
	c.HTML(http.StatusOK, "organizer.html", gin.H{
		"Event":      snap.Event.Name,
		"Styles":     cert.Styles,
		"Categories": snap.Categories,
	})
}

// certPage renders the self-service form for the event carried by the link.
func (h *Handler) certPage(c *gin.Context) {
	l := link.Decode(c.Request.URL.Query())
	snap := h.store.Snapshot()
	status := http.StatusOK
	if !snap.HasTemplate() {
		status = http.StatusServiceUnavailable
	}
	c.HTML(status, "cert.html", gin.H{
		"Event":       l.Event,
		"Categories":  l.Categories,
		"HasTemplate": snap.HasTemplate(),
		"Unavailable": msgTryLater,
	})
}
