package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deepchat-backend/dao"
	"deepchat-backend/middleware"
	"deepchat-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	loginCookieMaxAge  = 30 * 24 * time.Hour
	signupCookieMaxAge = 7 * 24 * time.Hour
)

// AuthController proxies credential flows to the external auth backend and
// manages the auth cookie. Token issuance and verification stay external.
type AuthController struct {
	client       *http.Client
	serviceURL   string
	cookieDomain string
	cookieSecure bool
	userDAO      *dao.UserDAO
	logger       *logrus.Logger
}

func NewAuthController(serviceURL, cookieDomain string, cookieSecure bool, userDAO *dao.UserDAO, logger *logrus.Logger) *AuthController {
	return &AuthController{
		client:       &http.Client{Timeout: 15 * time.Second},
		serviceURL:   strings.TrimSuffix(serviceURL, "/"),
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
		userDAO:      userDAO,
		logger:       logger,
	}
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Login handles POST /auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	c.proxyCredentials(ctx, "login", loginCookieMaxAge)
}

// Signup handles POST /auth/signup
func (c *AuthController) Signup(ctx *gin.Context) {
	c.proxyCredentials(ctx, "signup", signupCookieMaxAge)
}

// Logout handles POST /auth/logout
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.AuthCookieName, "", -1, "/", c.cookieDomain, c.cookieSecure, true)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (c *AuthController) proxyCredentials(ctx *gin.Context, flow string, maxAge time.Duration) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := http.NewRequestWithContext(ctx.Request.Context(), "POST",
		fmt.Sprintf("%s/%s", c.serviceURL, flow), bytes.NewReader(body))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Auth backend unreachable")
		ctx.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "authentication service unavailable"})
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		ctx.Data(resp.StatusCode, "application/json", respBody)
		return
	}

	var auth authResponse
	if err := json.Unmarshal(respBody, &auth); err != nil || auth.Token == "" {
		ctx.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "invalid auth backend response"})
		return
	}

	// Keep a local projection of the account so billing reads resolve.
	if auth.User.ID != "" {
		if err := c.userDAO.UpsertUser(&models.User{ID: auth.User.ID, Email: auth.User.Email}); err != nil {
			c.logger.WithError(err).Warn("Failed to upsert user record")
		}
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.AuthCookieName, auth.Token, int(maxAge.Seconds()), "/", c.cookieDomain, c.cookieSecure, true)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "user": auth.User})
}
