package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certgen/internal/cert"
	"github.com/youruser/certgen/internal/report"
	"github.com/youruser/certgen/internal/session"
)

type bulkRequest struct {
	// Names, when present, are registered under Category before the run.
	Names    []string `json:"names"`
	Category string   `json:"category"`
}

// startBulk renders every registered name in the background.
func (h *Handler) startBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	// registrations stay untouched when the run cannot start
	if !h.store.Snapshot().HasTemplate() {
		failErr(c, session.ErrNoTemplate)
		return
	}
	if len(req.Names) > 0 {
		cat := strings.TrimSpace(req.Category)
		if cat == "" {
			cat = cert.DefaultCategories[0]
		}
		names := make([]string, 0, len(req.Names))
		for _, n := range req.Names {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		if _, err := h.store.RegisterMany(cat, names); err != nil {
			failErr(c, err)
			return
		}
	}
	st, err := h.jobs.Start(h.store.Entries())
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, st)
}

func (h *Handler) listBulk(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.List()})
}

func (h *Handler) bulkStatus(c *gin.Context) {
	st, err := h.jobs.Status(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) cancelBulk(c *gin.Context) {
	st, err := h.jobs.Cancel(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) bulkArchive(c *gin.Context) {
	b, st, err := h.jobs.Archive(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	attachment(c, "application/zip", fileSafe(st.Event, "Event")+"_Certificates.zip", b)
}

func (h *Handler) bulkReport(c *gin.Context) {
	b, st, err := h.jobs.Report(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	attachment(c, report.ContentType, fileSafe(st.Event, "Event")+"_Report.xlsx", b)
}

// --- certificate log ---

func (h *Handler) listLog(c *gin.Context) {
	all := h.store.Log()
	recs := cert.FilterRecords(all, cert.FilterOptions{
		Categories: c.QueryArray("category"),
		FreeWords:  c.Query("q"),
	})
	c.JSON(http.StatusOK, gin.H{"total": len(all), "count": len(recs), "records": recs})
}

func (h *Handler) clearLog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cleared": h.store.ClearLog()})
}

func (h *Handler) logReport(c *gin.Context) {
	ev := h.store.Snapshot().Event
	b, err := report.Build(ev, h.store.Log(), h.now())
	if err != nil {
		failErr(c, err)
		return
	}
	attachment(c, report.ContentType, fileSafe(ev.Name, "Event")+"_Full_Report.xlsx", b)
}

func (h *Handler) logNames(c *gin.Context) {
	attachment(c, "text/plain; charset=utf-8", "registered_names.txt", []byte(cert.ExportNamesText(h.store.Log())))
}

func (h *Handler) stats(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"stats":    h.store.Stats(),
		"event":    eventResponse{EventMeta: snap.Event, Day: snap.Event.Weekday()},
		"template": snap.HasTemplate(),
		"jobs":     len(h.jobs.List()),
	})
}
