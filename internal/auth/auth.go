package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
	"stem-chat/internal/repository/postgres"
)

type contextKey string

const UserContextKey contextKey = "user"

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Auth issues and validates JWT tokens and serves the login and
// registration endpoints.
type Auth struct {
	db     db.Database
	secret []byte
}

func New(database db.Database, secret string) *Auth {
	return &Auth{db: database, secret: []byte(secret)}
}

// UsernameFromContext returns the authenticated username, or empty for
// anonymous requests.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(UserContextKey).(string)
	return username
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

func (a *Auth) GenerateToken(username string) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// LoginHandler authenticates a user and returns a JWT token
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Username == "" || req.Password == "" {
		sendError(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	user, err := a.db.GetUserByUsername(req.Username)
	if err != nil {
		logger.Log.WithField("username", req.Username).Warn("Login failed: user not found")
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	if !postgres.VerifyPassword(user, req.Password) {
		logger.Log.WithField("username", req.Username).Warn("Login failed: invalid password")
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := a.GenerateToken(req.Username)
	if err != nil {
		logger.Log.WithError(err).Error("Error generating token")
		sendError(w, http.StatusInternalServerError, "Error generating token", err)
		return
	}

	logger.Log.WithField("username", req.Username).Info("User logged in")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token})
}

// RegisterHandler creates a new user account
func (a *Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Username == "" || req.Password == "" {
		sendError(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	if len(req.Password) < 6 {
		sendError(w, http.StatusBadRequest, "Password must be at least 6 characters", nil)
		return
	}

	user, err := a.db.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		logger.Log.WithError(err).WithField("username", req.Username).Warn("Registration failed")
		if strings.Contains(err.Error(), "already exists") {
			sendError(w, http.StatusConflict, "Username already exists", err)
			return
		}
		sendError(w, http.StatusInternalServerError, "Error creating user", err)
		return
	}

	token, err := a.GenerateToken(user.Username)
	if err != nil {
		logger.Log.WithError(err).Error("Error generating token")
		sendError(w, http.StatusInternalServerError, "Error generating token", err)
		return
	}

	logger.Log.WithField("username", user.Username).Info("User registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RegisterResponse{
		Message: "User registered successfully",
		Token:   token,
	})
}

// Middleware rejects requests without a valid bearer token.
func (a *Auth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			sendError(w, http.StatusUnauthorized, "Missing authorization header", nil)
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			sendError(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := a.ValidateToken(bearerToken[1])
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalMiddleware attaches the username when a valid token is
// present and lets anonymous requests through untouched. Endpoints
// behind it decide per-feature what anonymous users may do.
func (a *Auth) OptionalMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			sendError(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := a.ValidateToken(bearerToken[1])
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
