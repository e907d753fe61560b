package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type renewalRequest struct {
	RenewalToken string `json:"renewal_token"`
}

type tokenPairResponse struct {
	AccessToken  string    `json:"access_token"`
	RenewalToken string    `json:"renewal_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type identityResponse struct {
	SubjectID string `json:"subject_id"`
	Role      string `json:"role"`
}

// unauthorizedBody is the single failure shape for every auth failure;
// callers learn nothing about which check failed.
var unauthorizedBody = gin.H{"message": "unauthorized"}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "login and password are required"})
		return
	}

	user, err := s.issuer.Register(c.Request.Context(), req.Login, req.Password, "user")
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "login already taken"})
			return
		}
		s.logger.Error(c.Request.Context(), "register failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
		return
	}

	pair, err := s.issuer.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RenewalToken: pair.RenewalToken,
		ExpiresAt:    pair.ExpiresAt.UTC(),
	})
}

func (s *HTTPServer) refresh(c *gin.Context) {
	var req renewalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RenewalToken == "" {
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
		return
	}

	pair, err := s.issuer.Refresh(c.Request.Context(), req.RenewalToken)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RenewalToken: pair.RenewalToken,
		ExpiresAt:    pair.ExpiresAt.UTC(),
	})
}

// logout always answers 200: revocation is idempotent and a client
// clearing its session must never be blocked by a server-side failure.
func (s *HTTPServer) logout(c *gin.Context) {
	var req renewalRequest
	_ = c.ShouldBindJSON(&req)

	if req.RenewalToken != "" {
		if err := s.issuer.Logout(c.Request.Context(), req.RenewalToken); err != nil {
			s.logger.Error(c.Request.Context(), "logout failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (s *HTTPServer) validate(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
		return
	}

	id, err := s.issuer.Validate(c.Request.Context(), token)
	if err != nil {
		s.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, identityResponse{SubjectID: id.SubjectID, Role: id.Role})
}

func (s *HTTPServer) writeAuthError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorUnauthorized) {
		c.JSON(http.StatusUnauthorized, unauthorizedBody)
		return
	}
	s.logger.Error(c.Request.Context(), "request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerPrefix) || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
