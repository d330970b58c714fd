package api

import (
	"encoding/base64"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certgen/internal/cert"
	imagepkg "github.com/youruser/certgen/internal/image"
	"github.com/youruser/certgen/internal/link"
	"github.com/youruser/certgen/internal/metrics"
)

type certFiles struct {
	png, pdf []byte
}

// issueCertificate handles a recipient's form. The render configuration
// and event come from the link in the query string; the template is the
// organizer's current one.
func (h *Handler) issueCertificate(c *gin.Context) {
	var sub cert.Submission
	if err := c.ShouldBind(&sub); err != nil {
		fail(c, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}
	l := link.Decode(c.Request.URL.Query())

	snap := h.store.Snapshot()
	if !snap.HasTemplate() {
		fail(c, http.StatusServiceUnavailable, msgTryLater)
		return
	}

	sub, missing := cert.ValidateSubmission(sub)
	if len(missing) > 0 {
		metrics.SubmissionsRejected.Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Please fill in: " + strings.Join(missing, ", "),
			"fields": missing,
		})
		return
	}
	if sub.Category == "" {
		sub.Category = l.Categories[0]
	}
	if !slices.Contains(l.Categories, sub.Category) {
		fail(c, http.StatusBadRequest, "unknown category "+sub.Category)
		return
	}
	if l.TemplateVersion != 0 && l.TemplateVersion != snap.Info.Version {
		metrics.StaleLinkSubmissions.Inc()
		log.Printf("self-service link made for template v%d, rendering on v%d", l.TemplateVersion, snap.Info.Version)
	}

	files, err := renderWithin(c.Request.Context(), metrics.PathSelfService, h.cfg.RenderTimeout, func() (certFiles, error) {
		start := time.Now()
		img := imagepkg.Render(sub.Name, snap.Template, l.Config, h.fonts)
		metrics.ObserveRender(metrics.PathSelfService, start)

		pngBytes, err := imagepkg.EncodePNG(img)
		if err != nil {
			return certFiles{}, err
		}
		pdfBytes, err := h.pdf.ToPDF(img, sub.Name+" | "+l.Event)
		return certFiles{png: pngBytes, pdf: pdfBytes}, err
	})
	if err != nil {
		failErr(c, err)
		return
	}

	entry := cert.Entry{Name: sub.Name, Category: sub.Category}
	rec := sub.Record(l.Event, cert.NewRecord(entry, l.Event, h.now()))
	h.store.AppendRecord(rec)

	base := "Certificate_" + fileSafe(sub.Name, "certificate")
	c.JSON(http.StatusOK, gin.H{
		"record":       rec,
		"png":          base64.StdEncoding.EncodeToString(files.png),
		"pdf":          base64.StdEncoding.EncodeToString(files.pdf),
		"png_filename": base + ".png",
		"pdf_filename": base + ".pdf",
	})
}
