package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/middleware"
	"bossai/internal/sqlinline"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Language  string `json:"language"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type activateRequest struct {
	Token string `json:"token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type loginResponse struct {
	tokenPairResponse
	User userProfileDTO `json:"user"`
}

type userProfileDTO struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"isActive"`
	OAuthProvider string    `json:"oauthProvider,omitempty"`
	Language      string    `json:"language"`
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuthRegister creates an inactive account and logs the activation token.
// Mail delivery is out of scope so the token only appears in the server log.
func (a *App) AuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if len(req.Username) < 3 || len(req.Username) > 50 {
		a.error(w, http.StatusBadRequest, "invalid_username", "username must be between 3 and 50 characters")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") || len(req.Email) > 100 {
		a.error(w, http.StatusBadRequest, "invalid_email", "a valid email address is required")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "invalid_password", "password must be at least 8 characters")
		return
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = domain.DefaultLanguage
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Error().Err(err).Msg("password hash failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not process registration")
		return
	}
	token := uuid.NewString()

	var (
		id        string
		createdAt time.Time
	)
	err = a.SQL.QueryRow(r.Context(), sqlinline.QInsertUser,
		req.Username, req.Email, string(hash), req.FirstName, req.LastName, token, language,
	).Scan(&id, &createdAt)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusConflict, "user_exists", "username or email is already registered")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("user insert failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not process registration")
		return
	}

	a.Logger.Info().
		Str("user_id", id).
		Str("username", req.Username).
		Str("verification_token", token).
		Msg("user registered, activation pending")

	a.json(w, http.StatusCreated, map[string]any{
		"id":        id,
		"username":  req.Username,
		"email":     req.Email,
		"message":   "registration accepted, activate the account with the emailed token",
		"createdAt": createdAt,
	})
}

// AuthActivate flips an account to active when the verification token
// matches and has not expired.
func (a *App) AuthActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		a.error(w, http.StatusBadRequest, "invalid_body", "an activation token is required")
		return
	}
	token := strings.TrimSpace(req.Token)

	var id, username string
	err := a.SQL.QueryRow(r.Context(), sqlinline.QActivateUser, token).Scan(&id, &username)
	if err == nil {
		a.Logger.Info().Str("user_id", id).Msg("account activated")
		a.json(w, http.StatusOK, map[string]any{"username": username, "message": "account activated"})
		return
	}
	if !infra.IsNoRows(err) {
		a.Logger.Error().Err(err).Msg("activation update failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not activate account")
		return
	}

	// Distinguish a token that never existed from one that expired.
	var (
		staleID string
		expires *time.Time
	)
	err = a.SQL.QueryRow(r.Context(), sqlinline.QSelectVerificationToken, token).Scan(&staleID, &expires)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_token", "activation token not recognized")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("activation lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not activate account")
		return
	}
	a.error(w, http.StatusGone, "token_expired", "activation token has expired, register again")
}

// AuthLogin checks credentials, enforces the lockout window and returns a
// token pair. Every attempt lands in login_audit.
func (a *App) AuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "missing_credentials", "username and password are required")
		return
	}

	var (
		id, username, email, passwordHash, role string
		isActive                                bool
		failedAttempts                          int
		lockedUntil                             *time.Time
		language, timezone                      string
		createdAt, updatedAt                    time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByUsername, req.Username).Scan(
		&id, &username, &email, &passwordHash, &role, &isActive,
		&failedAttempts, &lockedUntil, &language, &timezone, &createdAt, &updatedAt,
	)
	if infra.IsNoRows(err) {
		a.auditLogin(r, nil, req.Username, false)
		a.error(w, http.StatusUnauthorized, "invalid_credentials", "username or password is incorrect")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("user lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not process login")
		return
	}

	now := time.Now()
	if lockedUntil != nil && lockedUntil.After(now) {
		a.auditLogin(r, &id, username, false)
		a.error(w, http.StatusLocked, "account_locked", "account is temporarily locked, try again later")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		var (
			attempts  int
			lockedNow *time.Time
		)
		ferr := a.SQL.QueryRow(r.Context(), sqlinline.QRecordLoginFailure,
			id, a.Config.MaxLoginAttempts, int(a.Config.LockoutDuration.Seconds()),
		).Scan(&attempts, &lockedNow)
		if ferr != nil {
			a.Logger.Warn().Err(ferr).Str("user_id", id).Msg("login failure count update failed")
		}
		a.auditLogin(r, &id, username, false)
		if lockedNow != nil && lockedNow.After(now) {
			a.error(w, http.StatusLocked, "account_locked", "too many failed attempts, account is temporarily locked")
			return
		}
		a.error(w, http.StatusUnauthorized, "invalid_credentials", "username or password is incorrect")
		return
	}

	if !isActive {
		a.auditLogin(r, &id, username, false)
		a.error(w, http.StatusForbidden, "account_inactive", "account has not been activated")
		return
	}

	if _, err := a.SQL.Exec(r.Context(), sqlinline.QRecordLoginSuccess, id); err != nil {
		a.Logger.Warn().Err(err).Str("user_id", id).Msg("login success bookkeeping failed")
	}
	a.auditLogin(r, &id, username, true)

	pair, err := a.issueTokenPair(id, role, language)
	if err != nil {
		a.Logger.Error().Err(err).Msg("token signing failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not issue tokens")
		return
	}
	a.json(w, http.StatusOK, loginResponse{
		tokenPairResponse: pair,
		User: userProfileDTO{
			ID:        id,
			Username:  username,
			Email:     email,
			Role:      role,
			IsActive:  isActive,
			Language:  language,
			Timezone:  timezone,
			CreatedAt: createdAt,
		},
	})
}

// AuthRefresh exchanges a valid refresh token for a fresh pair. The account
// must still be active and unlocked.
func (a *App) AuthRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		a.error(w, http.StatusBadRequest, "invalid_body", "a refresh token is required")
		return
	}

	claims, err := middleware.VerifyJWT(a.Config.JWTSecret, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		a.error(w, http.StatusUnauthorized, "invalid_token", "refresh token is invalid or expired")
		return
	}
	if claims.TokenType != middleware.TokenTypeRefresh || claims.Issuer != a.Config.JWTIssuer {
		a.error(w, http.StatusUnauthorized, "invalid_token", "token is not a refresh token")
		return
	}

	profile, status, code, msg := a.loadProfile(r, claims.Sub)
	if status != http.StatusOK {
		a.error(w, status, code, msg)
		return
	}
	if !profile.IsActive {
		a.error(w, http.StatusForbidden, "account_inactive", "account has been deactivated")
		return
	}

	pair, err := a.issueTokenPair(profile.ID, profile.Role, profile.Language)
	if err != nil {
		a.Logger.Error().Err(err).Msg("token signing failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not issue tokens")
		return
	}
	a.json(w, http.StatusOK, loginResponse{tokenPairResponse: pair, User: profile})
}

// AuthGoogle verifies a Google ID token and provisions the account on first
// login. Google accounts are active immediately.
func (a *App) AuthGoogle(w http.ResponseWriter, r *http.Request) {
	if a.GoogleVerifier == nil {
		a.error(w, http.StatusServiceUnavailable, "google_disabled", "google login is not configured")
		return
	}
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		a.error(w, http.StatusBadRequest, "invalid_body", "an idToken is required")
		return
	}

	claims, err := a.GoogleVerifier.VerifyIDToken(r.Context(), strings.TrimSpace(req.IDToken))
	if err != nil {
		a.error(w, http.StatusUnauthorized, "invalid_token", "google token verification failed")
		return
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		a.error(w, http.StatusUnauthorized, "invalid_token", "google token is missing required claims")
		return
	}
	locale, _ := claims["locale"].(string)
	if locale == "" {
		locale = domain.DefaultLanguage
	}
	username := googleUsername(email, sub)

	var id, dbUsername, role, language string
	err = a.SQL.QueryRow(r.Context(), sqlinline.QUpsertGoogleUser, email, username, sub, locale).
		Scan(&id, &dbUsername, &role, &language)
	if err != nil {
		a.Logger.Error().Err(err).Msg("google user upsert failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not process login")
		return
	}
	a.auditLogin(r, &id, dbUsername, true)

	pair, err := a.issueTokenPair(id, role, language)
	if err != nil {
		a.Logger.Error().Err(err).Msg("token signing failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not issue tokens")
		return
	}
	a.json(w, http.StatusOK, loginResponse{
		tokenPairResponse: pair,
		User: userProfileDTO{
			ID:            id,
			Username:      dbUsername,
			Email:         email,
			Role:          role,
			IsActive:      true,
			OAuthProvider: "google",
			Language:      language,
		},
	})
}

// Me returns the authenticated user's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	profile, status, code, msg := a.loadProfile(r, userID)
	if status != http.StatusOK {
		a.error(w, status, code, msg)
		return
	}
	a.json(w, http.StatusOK, profile)
}

func (a *App) loadProfile(r *http.Request, userID string) (userProfileDTO, int, string, string) {
	var (
		id, username, email  string
		firstName, lastName  *string
		role                 string
		isActive             bool
		lockedUntil          *time.Time
		oauthProvider        *string
		language, timezone   string
		createdAt, updatedAt time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByID, userID).Scan(
		&id, &username, &email, &firstName, &lastName, &role, &isActive,
		&lockedUntil, &oauthProvider, &language, &timezone, &createdAt, &updatedAt,
	)
	if infra.IsNoRows(err) {
		return userProfileDTO{}, http.StatusUnauthorized, "unknown_user", "account no longer exists"
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("user lookup failed")
		return userProfileDTO{}, http.StatusInternalServerError, "internal_error", "could not load profile"
	}
	if lockedUntil != nil && lockedUntil.After(time.Now()) {
		return userProfileDTO{}, http.StatusLocked, "account_locked", "account is temporarily locked"
	}

	p := userProfileDTO{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		Language:  language,
		Timezone:  timezone,
		CreatedAt: createdAt,
	}
	if firstName != nil {
		p.FirstName = *firstName
	}
	if lastName != nil {
		p.LastName = *lastName
	}
	if oauthProvider != nil {
		p.OAuthProvider = *oauthProvider
	}
	return p, http.StatusOK, "", ""
}

func (a *App) issueTokenPair(userID, role, locale string) (tokenPairResponse, error) {
	now := time.Now()
	access, err := middleware.SignJWT(a.Config.JWTSecret, middleware.TokenClaims{
		Sub:       userID,
		Role:      role,
		TokenType: middleware.TokenTypeAccess,
		Locale:    locale,
		Exp:       now.Add(a.Config.AccessTokenTTL).Unix(),
		Iat:       now.Unix(),
		Issuer:    a.Config.JWTIssuer,
		Audience:  a.Config.JWTAudience,
	})
	if err != nil {
		return tokenPairResponse{}, err
	}
	refresh, err := middleware.SignJWT(a.Config.JWTSecret, middleware.TokenClaims{
		Sub:       userID,
		Role:      role,
		TokenType: middleware.TokenTypeRefresh,
		Locale:    locale,
		Exp:       now.Add(a.Config.RefreshTokenTTL).Unix(),
		Iat:       now.Unix(),
		Issuer:    a.Config.JWTIssuer,
		Audience:  a.Config.JWTAudience,
	})
	if err != nil {
		return tokenPairResponse{}, err
	}
	return tokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(a.Config.AccessTokenTTL.Seconds()),
	}, nil
}

// auditLogin records the attempt with the caller's IP, resolved country and
// user agent. Failures here never affect the login outcome.
func (a *App) auditLogin(r *http.Request, userID *string, username string, success bool) {
	ip := middleware.ClientIP(r)
	var country string
	if a.Geo != nil && ip != "" {
		if c, err := a.Geo.CountryCode(ip); err == nil {
			country = c
		}
	}
	var uid any
	if userID != nil {
		uid = *userID
	}
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertLoginAudit,
		uid, username, success, ip, country, r.UserAgent(),
	); err != nil {
		a.Logger.Warn().Err(err).Str("username", username).Msg("login audit write failed")
	}
}

func googleUsername(email, sub string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	tail := sub
	if len(tail) > 6 {
		tail = tail[:6]
	}
	return local + "_" + tail
}
