package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Session lifetime

	"quotation_system/internal/middleware" // Session context helpers
	"quotation_system/internal/store"      // Store errors
	"quotation_system/internal/utils"      // Session token helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// RegisterForm is the registration page form
type RegisterForm struct {
	Username    string `form:"username" binding:"required"`       // Display name
	Email       string `form:"email" binding:"required,email"`    // Login identifier
	PhoneNumber string `form:"phone_number" binding:"required"`   // Contact phone
	Password    string `form:"password" binding:"required,min=6"` // Plain password, hashed by the store
}

// LoginForm is the login page form
type LoginForm struct {
	Email    string `form:"email" binding:"required"`    // Registered email
	Password string `form:"password" binding:"required"` // Plain password
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Secret string        // HS256 signing key
	TTL    time.Duration // Session and cookie lifetime
	Secure bool          // Set the Secure flag (production)
}

// setSessionCookie writes the signed session cookie
func setSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

// clearSessionCookie expires the session cookie
func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, "", -1, "/", "", cfg.Secure, true)
}

// HomeHandler renders the landing page
func HomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "home.html", gin.H{"Username": middleware.Username(c)})
	}
}

// RegisterPageHandler renders the registration form
func RegisterPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "register.html", gin.H{})
	}
}

// RegisterHandler creates an account and sends the user to the login page
func RegisterHandler(users Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form RegisterForm // Bind the submitted form
		if err := c.ShouldBind(&form); err != nil {
			// If binding fails, re-render with a message
			c.HTML(http.StatusBadRequest, "register.html", gin.H{
				"Error":    "Please fill in every field with a valid email and a password of at least 6 characters.",
				"Username": form.Username, "Email": form.Email, "PhoneNumber": form.PhoneNumber,
			})
			return
		}
		user, err := users.Create(c.Request.Context(), form.Username, form.Email, form.PhoneNumber, form.Password)
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			c.HTML(http.StatusOK, "register.html", gin.H{
				"Error":    "Email already registered!",
				"Username": form.Username, "PhoneNumber": form.PhoneNumber,
			})
			return
		case errors.Is(err, store.ErrDuplicate):
			c.HTML(http.StatusOK, "register.html", gin.H{
				"Error": "Username already taken!",
				"Email": form.Email, "PhoneNumber": form.PhoneNumber,
			})
			return
		case err != nil:
			logrus.WithFields(logrus.Fields{"email": form.Email, "error": err}).Error("Failed to register user")
			renderError(c, http.StatusInternalServerError, "Registration failed, please try again.")
			return
		}
		logrus.WithField("user_id", user.ID).Info("User registered")
		c.Redirect(http.StatusSeeOther, "/login") // Registration done, go log in
	}
}

// LoginPageHandler renders the login form
func LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{})
	}
}

// LoginHandler authenticates a user and starts a session
func LoginHandler(users Users, sessions Sessions, cfg CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form LoginForm // Bind the submitted form
		if err := c.ShouldBind(&form); err != nil {
			c.HTML(http.StatusBadRequest, "login.html", gin.H{"Error": "Email and password are required.", "Email": form.Email})
			return
		}
		ctx := c.Request.Context()
		user, err := users.Authenticate(ctx, form.Email, form.Password)
		if errors.Is(err, store.ErrInvalidCredentials) {
			// Invalid credentials, show the form again
			c.HTML(http.StatusOK, "login.html", gin.H{"Error": "Invalid email or password!", "Email": form.Email})
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"email": form.Email, "error": err}).Error("Failed to authenticate user")
			renderError(c, http.StatusInternalServerError, "Login failed, please try again.")
			return
		}
		sid, err := sessions.Create(ctx, user.ID, cfg.TTL) // Server-side session
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err}).Error("Failed to create session")
			renderError(c, http.StatusInternalServerError, "Login failed, please try again.")
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Username, sid, cfg.Secret, cfg.TTL) // Signed cookie value
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err}).Error("Failed to sign session token")
			renderError(c, http.StatusInternalServerError, "Login failed, please try again.")
			return
		}
		setSessionCookie(c, cfg, token)
		logrus.WithField("user_id", user.ID).Info("User logged in")
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// LogoutHandler ends the current session
func LogoutHandler(sessions Sessions, cfg CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid := middleware.SessionID(c); sid != "" {
			if err := sessions.Revoke(c.Request.Context(), sid); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": middleware.UserID(c), "error": err}).Error("Failed to revoke session")
			}
		}
		clearSessionCookie(c, cfg)
		c.Redirect(http.StatusSeeOther, "/login")
	}
}

// DeleteAccountHandler removes the user and its catalog, then logs out
func DeleteAccountHandler(users Users, sessions Sessions, cfg CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.UserID(c)
		if err := users.Delete(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to delete account")
			renderError(c, http.StatusInternalServerError, "Could not delete the account, please try again.")
			return
		}
		if err := sessions.Revoke(ctx, middleware.SessionID(c)); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to revoke session")
		}
		clearSessionCookie(c, cfg)
		logrus.WithField("user_id", userID).Info("Account deleted")
		c.Redirect(http.StatusSeeOther, "/login")
	}
}
