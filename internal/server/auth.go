package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/autofill-agent/internal/config"
)

// AuthHandler exchanges the service password for a bearer token. The
// expected bcrypt hash comes from AUTH_PASSWORD_HASH.
type AuthHandler struct {
	passwords    *config.PasswordConfig
	passwordHash string
	jwt          *JWTService
	validate     *validator.Validate
}

// NewAuthHandler creates an auth handler from the password and JWT services.
func NewAuthHandler(passwords *config.PasswordConfig, jwt *JWTService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		passwords:    passwords,
		passwordHash: os.Getenv("AUTH_PASSWORD_HASH"),
		jwt:          jwt,
		validate:     validate,
	}
}

// TokenRequest is the login payload.
type TokenRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

// Token issues a JWT when the service password matches the configured hash.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, &ErrValidation{Field: "password", Message: "password is required (min 8 chars)"})
		return
	}

	if h.passwordHash == "" || !h.passwords.VerifyPassword(req.Password, h.passwordHash) {
		writeError(w, &ErrInvalidCredentials{})
		return
	}

	clientID := uuid.New()
	token, err := h.jwt.GenerateToken(clientID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(TokenResponse{Token: token, ClientID: clientID.String()})
}

// writeError maps an error to its HTTP status and writes a JSON body.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
