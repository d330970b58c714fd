package api

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/youruser/certgen/internal/auth"
	"github.com/youruser/certgen/internal/httpmiddleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// RegisterRoutes mounts the pages, the public API and the organizer API.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.SetHTMLTemplate(pages)

	r.GET("/", h.organizerPage)
	r.GET("/cert", h.certPage)

	loginLimit := httpmiddleware.NewTokenBucket(h.cfg.LoginRatePerMin, h.cfg.LoginRatePerMin,
		"too many login attempts, try again later")

	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.POST("/cert", h.issueCertificate)
		api.POST("/admin/login", loginLimit.GinMiddleware(), h.login)
		api.POST("/admin/logout", h.logout)
	}

	admin := api.Group("/admin", auth.AdminAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	{
		admin.POST("/password", h.changePassword)

		admin.GET("/template", h.getTemplate)
		admin.POST("/template", h.uploadTemplate)
		admin.POST("/template/url", h.templateFromURL)

		admin.GET("/config", h.getConfig)
		admin.PUT("/config", h.putConfig)
		admin.GET("/event", h.getEvent)
		admin.PUT("/event", h.putEvent)

		admin.POST("/categories", h.addCategory)
		admin.GET("/registrations", h.listRegistrations)
		admin.POST("/registrations/upload", h.uploadRegistrations)
		admin.PUT("/registrations/:category", h.replaceRegistrations)

		admin.GET("/preview", h.preview)
		admin.GET("/preview/all", h.previewGallery)

		admin.POST("/qr", h.createQR)
		admin.GET("/qr.png", h.qrPNG)
		admin.GET("/qr.pdf", h.qrPoster)

		admin.GET("/bulk", h.listBulk)
		admin.POST("/bulk", h.startBulk)
		admin.GET("/bulk/:id", h.bulkStatus)
		admin.DELETE("/bulk/:id", h.cancelBulk)
		admin.GET("/bulk/:id/archive", h.bulkArchive)
		admin.GET("/bulk/:id/report", h.bulkReport)

		admin.GET("/log", h.listLog)
		admin.DELETE("/log", h.clearLog)
		admin.GET("/log/report.xlsx", h.logReport)
		admin.GET("/log/names.txt", h.logNames)

		admin.GET("/stats", h.stats)
	}
}
