package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/http/middleware"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/admins"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/apperr"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/identity"
)

// AuthHandler establishes sessions. Attendee identity is issued by the
// external auth provider and delivered as a signed callback; the admin
// console signs in with email and password.
type AuthHandler struct {
	SessionCfg   middleware.SessionCfg
	SharedSecret string
	Admins       *admins.Service
}

func NewAuthHandler(sessCfg middleware.SessionCfg, sharedSecret string, adminSvc *admins.Service) *AuthHandler {
	return &AuthHandler{SessionCfg: sessCfg, SharedSecret: sharedSecret, Admins: adminSvc}
}

type identityCallbackReq struct {
	Email     string `json:"email" binding:"required,email"`
	Timestamp int64  `json:"timestamp" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// callbackMaxSkew bounds how old a signed callback may be.
const callbackMaxSkew = 5 * time.Minute

// IdentityCallback verifies the auth provider's signature and starts an
// attendee session.
func (h *AuthHandler) IdentityCallback(c *gin.Context) {
	var req identityCallbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	issued := time.Unix(req.Timestamp, 0)
	if d := time.Since(issued); d < -callbackMaxSkew || d > callbackMaxSkew {
		middleware.Fail(c, apperr.UnauthorizedErr("Sign-in link has expired. Please sign in again."))
		return
	}

	email := identity.Normalize(req.Email)
	if !h.verifySignature(email, req.Timestamp, req.Signature) {
		middleware.Fail(c, apperr.UnauthorizedErr("Sign-in could not be verified."))
		return
	}

	sess, err := middleware.CreateSession(h.SessionCfg, email, middleware.RoleAttendee)
	if err != nil {
		fail(c, err)
		return
	}
	h.setCookie(c, sess.ID)

	OK(c, http.StatusOK, gin.H{"email": email})
}

type adminLoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AdminLogin signs an administrator into the admin console.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err, &req)
		return
	}

	adm, err := h.Admins.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, admins.ErrBadCredentials) {
			middleware.Fail(c, apperr.UnauthorizedErr("Email or password is incorrect."))
			return
		}
		fail(c, err)
		return
	}

	sess, err := middleware.CreateSession(h.SessionCfg, adm.Email, middleware.RoleAdmin)
	if err != nil {
		fail(c, err)
		return
	}
	h.setCookie(c, sess.ID)

	OK(c, http.StatusOK, gin.H{"email": adm.Email, "role": middleware.RoleAdmin})
}

// Logout deletes the current session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.SessionCfg.CookieName); err == nil && sessionID != "" {
		_ = middleware.DeleteSession(h.SessionCfg, sessionID)
	}
	c.SetCookie(h.SessionCfg.CookieName, "", -1, "/", "", h.SessionCfg.Secure, true)
	OK(c, http.StatusOK, nil)
}

func (h *AuthHandler) setCookie(c *gin.Context, sessionID string) {
	c.SetCookie(
		h.SessionCfg.CookieName,
		sessionID,
		int(h.SessionCfg.TTL.Seconds()),
		"/",
		"",
		h.SessionCfg.Secure,
		true,
	)
}

func (h *AuthHandler) verifySignature(email string, ts int64, sig string) bool {
	mac := hmac.New(sha256.New, []byte(h.SharedSecret))
	mac.Write([]byte(email))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	want := hex.EncodeToString(mac.Sum(nil))

	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	wantRaw, _ := hex.DecodeString(want)
	return hmac.Equal(got, wantRaw)
}
