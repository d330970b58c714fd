package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certgen/internal/auth"
	"github.com/youruser/certgen/internal/cert"
	imagepkg "github.com/youruser/certgen/internal/image"
	"github.com/youruser/certgen/internal/link"
	"github.com/youruser/certgen/internal/metrics"
	"github.com/youruser/certgen/internal/session"
)

// PreviewName is rendered when a preview request names nobody.
const PreviewName = "Muhammad Ali Khan"

// MaxGallery bounds the all-names preview.
const MaxGallery = 30

type passwordRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "password is required")
		return
	}
	if !h.store.CheckPassword(req.Password) {
		metrics.LoginFailures.Inc()
		fail(c, http.StatusUnauthorized, "invalid password")
		return
	}
	tok, err := auth.Issue(h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AdminTokenTTL, time.Now())
	if err != nil {
		fail(c, http.StatusInternalServerError, "token issue failed")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, tok.Value, int(h.cfg.AdminTokenTTL.Seconds()), "/", "", h.cfg.Production(), true)
	c.JSON(http.StatusOK, gin.H{"token": tok.Value, "expires_at": tok.ExpiresAt.Unix()})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.cfg.Production(), true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "password is required")
		return
	}
	if err := h.store.SetPassword(req.Password); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	log.Println("admin password changed")
	c.Status(http.StatusNoContent)
}

// --- template ---

func (h *Handler) uploadTemplate(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	if fh.Size > h.cfg.MaxTemplateBytes {
		fail(c, http.StatusRequestEntityTooLarge, "template file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxTemplateBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if int64(len(data)) > h.cfg.MaxTemplateBytes {
		fail(c, http.StatusRequestEntityTooLarge, "template file too large")
		return
	}
	img, err := imagepkg.DecodeTemplate(data)
	if err != nil {
		failErr(c, err)
		return
	}
	info := h.store.SetTemplate(img, filepath.Base(fh.Filename), len(data), h.now())
	log.Printf("template v%d uploaded: %s %dx%d", info.Version, info.Filename, info.Width, info.Height)
	c.JSON(http.StatusOK, info)
}

func (h *Handler) templateFromURL(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "a valid url is required")
		return
	}
	img, data, err := imagepkg.DownloadTemplate(req.URL, h.cfg.MaxTemplateBytes)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, imagepkg.ErrTemplateFormat) || errors.Is(err, imagepkg.ErrTemplateSize) {
			status = http.StatusBadRequest
		}
		fail(c, status, err.Error())
		return
	}
	name := filepath.Base(req.URL)
	info := h.store.SetTemplate(img, name, len(data), h.now())
	log.Printf("template v%d downloaded from %s", info.Version, req.URL)
	c.JSON(http.StatusOK, info)
}

func (h *Handler) getTemplate(c *gin.Context) {
	snap := h.store.Snapshot()
	if !snap.HasTemplate() {
		fail(c, http.StatusNotFound, "no template uploaded")
		return
	}
	b, err := imagepkg.EncodePNG(snap.Template)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("X-Template-Version", strconv.FormatUint(snap.Info.Version, 10))
	c.Data(http.StatusOK, "image/png", b)
}

// --- config and event ---

func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot().Config)
}

// putConfig merges the body into the current configuration, so omitted
// fields keep their values.
func (h *Handler) putConfig(c *gin.Context) {
	cfg := h.store.Snapshot().Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.store.SetConfig(cfg))
}

type eventResponse struct {
	cert.EventMeta
	Day string `json:"day"`
}

func (h *Handler) getEvent(c *gin.Context) {
	ev := h.store.Snapshot().Event
	c.JSON(http.StatusOK, eventResponse{EventMeta: ev, Day: ev.Weekday()})
}

func (h *Handler) putEvent(c *gin.Context) {
	ev := h.store.Snapshot().Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Name == "" {
		fail(c, http.StatusBadRequest, "event name is required")
		return
	}
	h.store.SetEvent(ev)
	c.JSON(http.StatusOK, eventResponse{EventMeta: ev, Day: ev.Weekday()})
}

// --- registrations ---

func (h *Handler) listRegistrations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"registrations": h.store.Registrations(),
		"stats":         h.store.Stats(),
	})
}

func (h *Handler) addCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "category name is required")
		return
	}
	added, err := h.store.AddCategory(req.Name)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"categories": h.store.Categories()})
}

// uploadRegistrations loads a .txt name list into one category, or a .csv
// with name and category columns.
func (h *Handler) uploadRegistrations(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	category := strings.TrimSpace(c.DefaultPostForm("category", cert.DefaultCategories[0]))
	if category == "" {
		category = cert.DefaultCategories[0]
	}
	category, err = cert.CheckCategory(category)
	if err != nil {
		failErr(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	loaded, added := 0, 0
	if strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		entries, err := cert.ParseRegistrationCSV(f, category)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		for _, e := range entries {
			if _, err := cert.CheckCategory(e.Category); err != nil {
				failErr(c, fmt.Errorf("%s: %w", e.Name, err))
				return
			}
		}
		loaded = len(entries)
		for _, e := range entries {
			ok, err := h.store.Register(e)
			if err != nil {
				failErr(c, err)
				return
			}
			if ok {
				added++
			}
		}
	} else {
		names, err := cert.ParseNameList(f)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		loaded = len(names)
		if added, err = h.store.RegisterMany(category, names); err != nil {
			failErr(c, err)
			return
		}
	}
	log.Printf("registrations uploaded from %s: %d loaded, %d new", fh.Filename, loaded, added)
	c.JSON(http.StatusOK, gin.H{"loaded": loaded, "added": added})
}

func (h *Handler) replaceRegistrations(c *gin.Context) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	category, err := cert.CheckCategory(c.Param("category"))
	if err != nil {
		failErr(c, err)
		return
	}
	kept, err := h.store.ReplaceCategory(category, req.Names)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "names": kept})
}

// --- preview ---

func (h *Handler) preview(c *gin.Context) {
	snap := h.store.Snapshot()
	if !snap.HasTemplate() {
		failErr(c, session.ErrNoTemplate)
		return
	}
	name := strings.TrimSpace(c.DefaultQuery("name", PreviewName))
	asPDF := c.Query("format") == "pdf"
	b, err := renderWithin(c.Request.Context(), metrics.PathPreview, h.cfg.RenderTimeout, func() ([]byte, error) {
		start := time.Now()
		img := imagepkg.Render(name, snap.Template, snap.Config, h.fonts)
		metrics.ObserveRender(metrics.PathPreview, start)
		if asPDF {
			return h.pdf.ToPDF(img, name+" | "+snap.Event.Name)
		}
		return imagepkg.EncodePNG(img)
	})
	if err != nil {
		failErr(c, err)
		return
	}

	base := "Preview_" + fileSafe(name, "certificate")
	if asPDF {
		attachment(c, "application/pdf", base+".pdf", b)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+base+`.png"`)
	c.Data(http.StatusOK, "image/png", b)
}

type galleryItem struct {
	cert.Entry
	PNG string `json:"png"`
}

// previewGallery renders the first registered names so the organizer can
// check them before a bulk run.
func (h *Handler) previewGallery(c *gin.Context) {
	snap := h.store.Snapshot()
	if !snap.HasTemplate() {
		failErr(c, session.ErrNoTemplate)
		return
	}
	limit := 6
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	limit = min(limit, MaxGallery)

	entries := h.store.Entries()
	if len(entries) > limit {
		entries = entries[:limit]
	}
	items, err := renderWithin(c.Request.Context(), metrics.PathPreview, h.cfg.RenderTimeout, func() ([]galleryItem, error) {
		items := make([]galleryItem, 0, len(entries))
		for _, e := range entries {
			start := time.Now()
			img := imagepkg.Render(e.Name, snap.Template, snap.Config, h.fonts)
			metrics.ObserveRender(metrics.PathPreview, start)
			b, err := imagepkg.EncodePNG(img)
			if err != nil {
				return nil, err
			}
			items = append(items, galleryItem{Entry: e, PNG: base64.StdEncoding.EncodeToString(b)})
		}
		return items, nil
	})
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// --- QR ---

type qrRequest struct {
	BaseURL    string   `json:"base_url" form:"base_url"`
	Categories []string `json:"categories" form:"cats"`
}

// currentLink builds the self-service link for the current session.
// Categories may also be given as comma-separated lists, as in the link.
func (h *Handler) currentLink(req qrRequest) (string, link.Link, error) {
	snap := h.store.Snapshot()
	if !snap.HasTemplate() {
		return "", link.Link{}, session.ErrNoTemplate
	}
	base := strings.TrimSpace(req.BaseURL)
	if base == "" {
		base = strings.TrimRight(h.cfg.PublicBaseURL, "/") + "/"
	}
	cats := []string{}
	for _, list := range req.Categories {
		for _, c := range strings.Split(list, ",") {
			if c = strings.TrimSpace(c); c != "" && !slices.Contains(cats, c) {
				cats = append(cats, c)
			}
		}
	}
	if len(cats) == 0 {
		cats = snap.Categories
	}
	return base, link.Link{
		Config:          snap.Config,
		Event:           snap.Event.Name,
		Categories:      cats,
		TemplateVersion: snap.Info.Version,
	}, nil
}

func (h *Handler) createQR(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	base, l, err := h.currentLink(req)
	if err != nil {
		failErr(c, err)
		return
	}
	u, png, err := link.EncodeQR(base, l)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "link": l, "qr_png": base64.StdEncoding.EncodeToString(png)})
}

func (h *Handler) qrPNG(c *gin.Context) {
	base, l, err := h.currentLink(qrRequest{BaseURL: c.Query("base_url"), Categories: c.QueryArray("cats")})
	if err != nil {
		failErr(c, err)
		return
	}
	_, png, err := link.EncodeQR(base, l)
	if err != nil {
		failErr(c, err)
		return
	}
	attachment(c, "image/png", "event_qr.png", png)
}

// qrPoster returns a printable page with the QR code and the event name.
func (h *Handler) qrPoster(c *gin.Context) {
	base, l, err := h.currentLink(qrRequest{BaseURL: c.Query("base_url"), Categories: c.QueryArray("cats")})
	if err != nil {
		failErr(c, err)
		return
	}
	img, err := imagepkg.GenerateQRImage(link.Encode(base, l), link.QRSize)
	if err != nil {
		failErr(c, err)
		return
	}
	b, err := h.pdf.ToPDF(img, "Scan for your certificate | "+l.Event)
	if err != nil {
		failErr(c, err)
		return
	}
	attachment(c, "application/pdf", "QR_"+fileSafe(l.Event, "event")+".pdf", b)
}
