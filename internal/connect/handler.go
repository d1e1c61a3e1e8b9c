package connect

import (
	"errors"
	"net/http"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/Gkemhcs/slidebox/internal/middleware"
	"github.com/Gkemhcs/slidebox/internal/session"
	"github.com/Gkemhcs/slidebox/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Where the browser lands after each step.
const (
	LandingPath = "/slides"
	HomePath    = "/"
	LoginPath   = "/connect/login"
)

// ConnectHandler handles the browser side of the login handshake.
type ConnectHandler struct {
	service *ConnectService
	codec   *session.Codec
	logger  *logrus.Logger
}

// NewConnectHandler creates a new ConnectHandler.
func NewConnectHandler(service *ConnectService, codec *session.Codec, logger *logrus.Logger) *ConnectHandler {
	return &ConnectHandler{
		service: service,
		codec:   codec,
		logger:  logger,
	}
}

// RegisterConnectRoutes mounts /connect and its modes on routerGroup. The
// session middleware must already be installed.
func RegisterConnectRoutes(handler *ConnectHandler, routerGroup *gin.RouterGroup) {
	connectGroup := routerGroup.Group("/connect")
	{
		connectGroup.GET("", handler.status)
		connectGroup.GET("/login", handler.login)
		connectGroup.GET("/verify", handler.verify)
		connectGroup.GET("/logout", handler.logout)
	}
}

type statusResponse struct {
	Provider string `json:"provider"`
	LoginURL string `json:"login_url"`
}

// status describes how to log in; users that already are go to their slides.
func (h *ConnectHandler) status(c *gin.Context) {
	if _, ok := middleware.GetSession(c).Credential(); ok {
		c.Redirect(http.StatusFound, LandingPath)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, statusResponse{
		Provider: h.service.ProviderName(),
		LoginURL: LoginPath,
	})
}

// login sends the browser to the provider's consent page.
func (h *ConnectHandler) login(c *gin.Context) {
	if _, ok := middleware.GetSession(c).Credential(); ok {
		c.Redirect(http.StatusFound, LandingPath)
		return
	}
	url, err := h.service.StartLogin(c.Request.Context())
	if err != nil {
		utils.RespondError(c, toAPIError(err))
		return
	}
	c.Redirect(http.StatusFound, url)
}

// verify is the provider callback. Dropbox v1 sends only oauth_token, so an
// absent oauth_verifier is passed through as "".
func (h *ConnectHandler) verify(c *gin.Context) {
	token := c.Query("oauth_token")
	verifier := c.Query("oauth_verifier")
	if token == "" {
		h.service.RejectCallback()
		utils.RespondError(c, apperrors.ErrMissingRequestToken)
		return
	}

	credential, profile, err := h.service.CompleteLogin(c.Request.Context(), token, verifier)
	if errors.Is(err, apperrors.ErrUnknownToken) {
		// the pending token expired; start over
		c.Redirect(http.StatusFound, LoginPath)
		return
	}
	if err != nil {
		utils.RespondError(c, toAPIError(err))
		return
	}

	s := middleware.GetSession(c)
	s.Login(credential, profile)
	if !h.setSession(c, s) {
		return
	}
	c.Redirect(http.StatusFound, LandingPath)
}

func (h *ConnectHandler) logout(c *gin.Context) {
	s := middleware.GetSession(c)
	s.Logout()
	if !h.setSession(c, s) {
		return
	}
	c.Redirect(http.StatusFound, HomePath)
}

func (h *ConnectHandler) setSession(c *gin.Context, s session.Session) bool {
	cookie, err := h.codec.Encode(s)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextKeyRequestID),
			"error":      err.Error(),
		}).Error("Could not encode session cookie")
		utils.RespondError(c, apperrors.ErrInternalServer)
		return false
	}
	c.Header("Set-Cookie", cookie)
	return true
}
