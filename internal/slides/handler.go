package slides

import (
	"net/http"
	"net/url"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/Gkemhcs/slidebox/internal/middleware"
	"github.com/Gkemhcs/slidebox/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SlidesHandler serves the slide browser and the informational pages.
type SlidesHandler struct {
	service *SlidesService
	logger  *logrus.Logger
}

// NewSlidesHandler creates a new SlidesHandler.
func NewSlidesHandler(service *SlidesService, logger *logrus.Logger) *SlidesHandler {
	return &SlidesHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterPageRoutes mounts the pages that only show who is logged in.
func RegisterPageRoutes(handler *SlidesHandler, routerGroup *gin.RouterGroup) {
	routerGroup.GET("/", handler.page("index"))
	routerGroup.GET("/help", handler.page("help"))
	routerGroup.GET("/about", handler.page("about"))
}

// RegisterSlidesRoutes mounts the routes that need a Dropbox credential.
func RegisterSlidesRoutes(handler *SlidesHandler, routerGroup *gin.RouterGroup) {
	routerGroup.GET("/slides", middleware.RequireCredentials("/connect/login"), handler.listSlides)
	routerGroup.GET("/file", middleware.RequireCredentials("/connect"), handler.file)
	routerGroup.GET("/presenter", middleware.RequireCredentials("/connect"), handler.presenter)
}

func (h *SlidesHandler) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.RespondSuccess(c, http.StatusOK, PageResponse{
			Page:     name,
			Username: middleware.GetSession(c).Username(),
		})
	}
}

func (h *SlidesHandler) listSlides(c *gin.Context) {
	s := middleware.GetSession(c)
	credential, _ := s.Credential()

	contents, err := h.service.ListSlides(c.Request.Context(), credential)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextKeyRequestID),
			"error":      err.Error(),
		}).Error("Could not list slides")
		utils.RespondError(c, providerError(err))
		return
	}
	utils.RespondSuccess(c, http.StatusOK, SlidesResponse{
		Username: s.Username(),
		Contents: contents,
	})
}

// file streams a deck through with the MIME type Dropbox reports.
func (h *SlidesHandler) file(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		utils.RespondError(c, apperrors.ErrMissingPath)
		return
	}
	credential, _ := middleware.GetSession(c).Credential()

	f, err := h.service.FetchFile(c.Request.Context(), credential, path)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextKeyRequestID),
			"path":       path,
			"error":      err.Error(),
		}).Error("Could not fetch file")
		utils.RespondError(c, providerError(err))
		return
	}
	if f.StatusCode != http.StatusOK {
		c.AbortWithStatus(f.StatusCode)
		return
	}
	c.Data(http.StatusOK, f.ContentType, f.Body)
}

func (h *SlidesHandler) presenter(c *gin.Context) {
	s := middleware.GetSession(c)
	utils.RespondSuccess(c, http.StatusOK, PresenterResponse{
		PDF:      "/file?path=" + url.QueryEscape(c.Query("path")),
		Username: s.Username(),
	})
}

func providerError(err error) *apperrors.APIError {
	if apperrors.IsProtocolError(err) {
		return apperrors.ErrProviderFailure
	}
	return apperrors.ErrInternalServer
}
