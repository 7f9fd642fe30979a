package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/auth"
	"github.com/ldelattre/microgest/internal/httpx"
	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/validation"
)

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Signup: POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if req.Password != "" && len(req.Password) < 8 {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	user := models.User{Email: req.Email, Password: string(hash), Nom: strings.TrimSpace(req.Nom), Prenom: strings.TrimSpace(req.Prenom)}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tokenResponse{Token: auth.IssueToken(user.ID), User: user})
}

// Login: POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"email": "required", "password": "required"})
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Token: auth.IssueToken(user.ID), User: user})
}

// Me: GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
