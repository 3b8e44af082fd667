package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/PixelPath7/vive-sano/configs"
	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/models"
)

var (
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	staffEmail   string
)

const (
	SessionName    = "gosess"
	SessionUserKey = "user_id"
	sessionState   = "oauth_state"
	contextUserKey = "user"
)

func Init(ctx context.Context, cfg config.OIDCConfig) {
	var err error
	provider, err = oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		log.Fatal().Err(err).Str("issuer", cfg.Issuer).Msg("OIDC provider init error")
	}

	verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	staffEmail = strings.ToLower(cfg.StaffEmail)

	oauth2Config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "phone"},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

// GET /auth/login
func Login(c *gin.Context) {
	state, err := newState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(sessionState, state)
	_ = sess.Save()

	c.Redirect(http.StatusFound, oauth2Config.AuthCodeURL(state))
}

// GET /auth/callback
func Callback(c *gin.Context) {
	sess := sessions.Default(c)
	if want, _ := sess.Get(sessionState).(string); want == "" || c.Query("state") != want {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	sess.Delete(sessionState)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code missing"})
		return
	}

	ctx := c.Request.Context()
	oauth2Token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token exchange failed"})
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no id_token in token response"})
		return
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token verification failed"})
		return
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "claims parse error"})
		return
	}

	user, err := Register(db.DB.WithContext(ctx), claims)
	if err != nil {
		log.Error().Err(err).Str("subject", claims.Sub).Msg("failed to register user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	sess.Set(SessionUserKey, user.ID)
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"message": "logged in", "user": user})
}

// GET /auth/logout
func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Claims are the ID token claims used to register users and clients.
type Claims struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone_number"`
}

// Register upserts the user for claims and, on first login, creates the
// client record linked to it in the same transaction. A client that fails
// validation is logged and skipped; the login still succeeds.
func Register(conn *gorm.DB, claims Claims) (*models.User, error) {
	var user models.User
	err := conn.Where("subject = ?", claims.Sub).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Subject:  claims.Sub,
		Username: claims.Name,
		Email:    claims.Email,
		IsStaff:  staffEmail != "" && strings.EqualFold(claims.Email, staffEmail),
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		client := models.Client{
			UserID:  &user.ID,
			Name:    claims.GivenName,
			Surname: claims.FamilyName,
			Email:   claims.Email,
			Phone:   digits(claims.Phone),
		}
		if err := tx.Create(&client).Error; err != nil {
			var verrs models.ValidationErrors
			if !errors.As(err, &verrs) {
				return err
			}
			log.Warn().Err(err).Uint("user_id", user.ID).Msg("client not created on registration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Middleware: ensures user is logged in and injects *models.User into context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		userID, ok := sess.Get(SessionUserKey).(uint)
		if !ok || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var user models.User
		if err := db.DB.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		c.Set(contextUserKey, &user)
		c.Next()
	}
}

// RequireStaff must run after RequireAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func digits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
