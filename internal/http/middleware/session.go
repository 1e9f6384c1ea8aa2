package middleware

import (
	"crypto/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionCfg holds configuration for session middleware.
type SessionCfg struct {
	DB         *gorm.DB
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Session is a database-backed session. Identity issuance happens at the
// external auth provider; once the callback is verified we only keep the
// email (and role for admin console logins).
type Session struct {
	ID         string    `gorm:"primaryKey;type:char(36)"`
	Email      string    `gorm:"type:varchar(255);not null;index:ix_sessions_email"`
	Role       string    `gorm:"type:varchar(16);not null;default:attendee"`
	TokenHash  []byte    `gorm:"type:binary(32);not null"`
	ExpiresAt  time.Time `gorm:"type:datetime(3);not null"`
	CreatedAt  time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt  time.Time `gorm:"type:datetime(3);not null"`
	LastSeenAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Session) TableName() string { return "sessions" }

const (
	RoleAttendee = "attendee"
	RoleAdmin    = "admin"
)

// SessionMiddleware loads the session from the database and sets the caller
// identity in the request context.
func SessionMiddleware(cfg SessionCfg) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		var sess Session
		if err := cfg.DB.Where("id = ? AND expires_at > ?", sessionID, time.Now()).First(&sess).Error; err != nil {
			// Invalid or expired session, clear cookie
			c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
			c.Next()
			return
		}

		c.Set("session", &sess)
		c.Set("session_email", sess.Email)
		c.Set("session_role", sess.Role)

		c.Next()
	}
}

// CreateSession creates a new session for a verified identity.
func CreateSession(cfg SessionCfg, email, role string) (*Session, error) {
	tokenHash, err := generateTokenHash()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &Session{
		ID:         uuid.NewString(),
		Email:      email,
		Role:       role,
		TokenHash:  tokenHash,
		ExpiresAt:  now.Add(cfg.TTL),
		CreatedAt:  now,
		UpdatedAt:  now,
		LastSeenAt: now,
	}
	if err := cfg.DB.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// DeleteSession removes a session by ID.
func DeleteSession(cfg SessionCfg, sessionID string) error {
	return cfg.DB.Delete(&Session{}, "id = ?", sessionID).Error
}

func generateTokenHash() ([]byte, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	return b, err
}

// ContextUser is the authenticated caller.
type ContextUser struct {
	Email string
	Role  string
}

// CurrentUser retrieves the authenticated caller from the gin context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	v, exists := c.Get("session_email")
	if !exists {
		return ContextUser{}, false
	}
	email, ok := v.(string)
	if !ok || email == "" {
		return ContextUser{}, false
	}

	role := RoleAttendee
	if r, ok := c.Get("session_role"); ok {
		if s, ok := r.(string); ok && s != "" {
			role = s
		}
	}
	return ContextUser{Email: email, Role: role}, true
}
