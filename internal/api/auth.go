package api

import (
	"errors"
	"time"

	"tradehub/internal/common/auth"
	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/validation"
	"tradehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := s.bind(c, validation.Register, &req); err != nil {
		return err
	}

	hash, err := s.deps.Passwords.Hash(req.Password)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	user, err := s.deps.Users.Register(c.UserContext(), req.Email, hash, req.Role, req.CompanyName, req.Phone)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeConflict) {
			return apperrors.NewConflictError("email already registered")
		}
		return err
	}

	resp, err := s.issue(user)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.bind(c, validation.Login, &req); err != nil {
		return err
	}

	user, err := s.deps.Users.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeUserNotFound) {
			return apperrors.NewUnauthorizedError("invalid email or password")
		}
		return err
	}
	if err := s.deps.Passwords.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperrors.NewUnauthorizedError("invalid email or password")
		}
		return apperrors.NewInternalError(err)
	}

	resp, err := s.issue(user)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *Server) me(c *fiber.Ctx) error {
	user, err := s.deps.Users.GetByID(c.UserContext(), identity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (s *Server) issue(user *models.User) (*authResponse, error) {
	token, expires, err := s.deps.Tokens.Issue(auth.Identity{
		UserID: user.ID,
		Role:   auth.Role(user.Role),
		Email:  user.Email,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &authResponse{Token: token, ExpiresAt: expires, User: user}, nil
}
