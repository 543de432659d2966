package httpserver

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
)

// openDate layouts accepted from forms, most specific first.
var openDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

type handlers struct {
	capsules       CapsuleAPI
	accounts       AccountAPI
	maxUploadBytes int64
	log            logging.Logger
}

func (h *handlers) me(c *gin.Context) {
	u, err := h.accounts.Profile(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                 u.ID,
		"email":              u.Email,
		"name":               u.Name,
		"emailNotifications": u.EmailNotifications,
	})
}

func (h *handlers) list(c *gin.Context) {
	list, err := h.capsules.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) get(c *gin.Context) {
	v, err := h.capsules.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) media(c *gin.Context) {
	list, err := h.capsules.GetMedia(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) mediaContent(c *gin.Context) {
	m, rc, err := h.capsules.OpenMedia(c.Request.Context(), userID(c), c.Param("id"), c.Param("mediaId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer rc.Close()

	contentType := m.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, m.Size, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", m.OriginalName),
	})
}

func (h *handlers) create(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(c, h.log, err)
			return
		}
		writeError(c, h.log, common.NewValidationError("", "request must be multipart/form-data"))
		return
	}
	defer func() { _ = form.RemoveAll() }()

	in := services.CreateCapsuleInput{
		Title:   firstValue(form, "title"),
		Message: firstValue(form, "message"),
	}

	if raw := strings.TrimSpace(firstValue(form, "openDate")); raw != "" {
		in.OpenDate, err = parseOpenDate(raw)
		if err != nil {
			writeError(c, h.log, common.NewValidationError("openDate", "invalid open date"))
			return
		}
	}

	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeError(c, h.log, fmt.Errorf("open upload %s: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		in.Files = append(in.Files, services.Upload{Filename: fh.Filename, Size: fh.Size, Content: f})
	}

	v, err := h.capsules.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Capsule created successfully", "capsule": v})
}

func (h *handlers) delete(c *gin.Context) {
	if err := h.capsules.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Capsule deleted successfully"})
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func parseOpenDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range openDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
