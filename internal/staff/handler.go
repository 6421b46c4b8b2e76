package staff

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/auth"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Signer     *auth.Signer
}

func NewHandler(db *gorm.DB, signer *auth.Signer) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Signer: signer}
}

// POST /auth/login
// Checks email/password and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	user, err := h.Repository.FindByEmail(h.DB.WithContext(r.Context()), req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, r, apperr.Persistence("load staff", err))
			return
		}
		utils.WriteError(w, r, apperr.Auth("invalid credentials"))
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		utils.WriteError(w, r, apperr.Auth("invalid credentials"))
		return
	}

	access, err := h.Signer.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int(auth.AccessTTL.Seconds()),
	})
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteError(w, r, apperr.Auth("missing bearer token"))
		return
	}
	user, err := h.Repository.FindByID(h.DB.WithContext(r.Context()), claims.StaffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, r, apperr.NotFound("staff", claims.StaffID))
			return
		}
		utils.WriteError(w, r, apperr.Persistence("load staff", err))
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

// EnsureAdmin creates or refreshes the bootstrap admin from configuration.
func EnsureAdmin(ctx context.Context, db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	repo := NewRepository()
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := repo.FindByEmail(db.WithContext(ctx), email)
	switch {
	case err == nil:
		if utils.CheckPassword(existing.Password, password) && existing.IsAdmin {
			return nil
		}
		existing.Password = hash
		existing.IsAdmin = true
		return repo.Save(db.WithContext(ctx), existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.Save(db.WithContext(ctx), &Staff{Name: "Administrator", Email: email, Password: hash, IsAdmin: true})
	default:
		return err
	}
}
