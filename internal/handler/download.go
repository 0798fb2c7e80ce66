package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"pbl-proxy-go/internal/model"
	"pbl-proxy-go/internal/service"
)

const mimeApplicationZip = "application/zip"

// Client-visible messages for validation failures.
const (
	msgFileTooSmall      = "File too small"
	msgMissingGemeente   = "Missing gemeente parameter"
	msgEmptyIdentifier   = "Missing municipality identifier"
	msgInvalidIdentifier = "Invalid municipality identifier"
	msgDownloadFailed    = "download failed"
)

// gemeenteAliases maps the apostrophe-prefixed names frontends send to the
// names the data portal files them under.
var gemeenteAliases = map[string]string{
	"'s-Gravenhage":    "s-Gravenhage",
	"'s-Hertogenbosch": "s-Hertogenbosch",
}

// DownloadHandler relays municipality archives from the upstream portal.
type DownloadHandler struct {
	service *service.ArchiveService
	logger  *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler.
func NewDownloadHandler(svc *service.ArchiveService, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		service: svc,
		logger:  logger.With("component", "download_handler"),
	}
}

// Download serves GET /download/:identifier.
func (h *DownloadHandler) Download(c echo.Context) error {
	identifier := c.Param("identifier")
	// Echo routes on RawPath when the request has one, and then hands over
	// the escaped segment. Otherwise the param is already decoded.
	if c.Request().URL.RawPath != "" {
		if decoded, err := url.PathUnescape(identifier); err == nil {
			identifier = decoded
		}
	}
	return h.relay(c, identifier)
}

// DownloadQuery serves GET /api/download?gemeente=...
// The apostrophe-prefixed spellings of The Hague and Den Bosch are mapped
// to their portal names.
func (h *DownloadHandler) DownloadQuery(c echo.Context) error {
	gemeente := c.QueryParam("gemeente")
	if gemeente == "" {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgMissingGemeente})
	}
	if alias, ok := gemeenteAliases[gemeente]; ok {
		gemeente = alias
	}
	return h.relay(c, gemeente)
}

func (h *DownloadHandler) relay(c echo.Context, identifier string) error {
	archive, err := h.service.Download(c.Request().Context(), identifier)
	if err != nil {
		return h.mapError(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, contentDisposition(archive.Filename()))
	header.Set(echo.HeaderContentLength, strconv.Itoa(archive.Size()))

	return c.Blob(http.StatusOK, mimeApplicationZip, archive.Data)
}

func (h *DownloadHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrArchiveTooSmall):
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgFileTooSmall})
	case errors.Is(err, service.ErrEmptyIdentifier):
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgEmptyIdentifier})
	case errors.Is(err, service.ErrInvalidIdentifier):
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgInvalidIdentifier})
	}

	h.logger.Error("relay failed",
		"err", err,
		"path", c.Request().URL.Path,
	)

	msg := err.Error()
	if msg == "" {
		msg = msgDownloadFailed
	}
	return c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msg})
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// contentDisposition builds an attachment header for name. Names outside
// printable ASCII get an RFC 6266 filename* parameter and a sanitized
// fallback.
func contentDisposition(name string) string {
	fallback, ascii := asciiFallback(name)
	v := `attachment; filename="` + quoteEscaper.Replace(fallback) + `"`
	if !ascii {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return v
}

func asciiFallback(name string) (string, bool) {
	ascii := true
	out := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			ascii = false
			return '_'
		}
		return r
	}, name)
	return out, ascii
}
