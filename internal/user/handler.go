package user

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/demo-credit/demo_credit/internal/api"
	"github.com/demo-credit/demo_credit/internal/apperrors"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// Handler exposes account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	CreatedAt   string `json:"created_at"`
}

type walletSummary struct {
	ID       string `json:"id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// Register creates an account with its wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRegister(req); err != nil {
		return err
	}

	res, err := h.service.Register(c.UserContext(), RegisterInput{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}

	return api.Created(c, "Account created successfully.", fiber.Map{
		"user": toUserResponse(res.User),
		"wallet": walletSummary{
			ID:       res.Wallet.ID,
			Balance:  res.Wallet.Balance.StringFixed(2),
			Currency: res.Wallet.Currency,
		},
		"token": res.Token,
	})
}

// Login verifies credentials and returns a fresh token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest(err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.BadRequest("Email and password are required.")
	}

	res, err := h.service.Login(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return err
	}

	return api.Success(c, "Login successful.", fiber.Map{
		"user":  toUserResponse(res.User),
		"token": res.Token,
	})
}

// Profile returns the authenticated caller's account.
func (h *Handler) Profile(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return apperrors.Unauthorized("Missing authentication.")
	}
	u, err := h.service.Profile(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return api.Success(c, "Profile retrieved successfully.", fiber.Map{"user": toUserResponse(u)})
}

func validateRegister(req registerRequest) error {
	switch {
	case strings.TrimSpace(req.FirstName) == "":
		return apperrors.BadRequest("First name is required.")
	case strings.TrimSpace(req.LastName) == "":
		return apperrors.BadRequest("Last name is required.")
	case !strings.Contains(req.Email, "@"):
		return apperrors.BadRequest("A valid email address is required.")
	case !phonePattern.MatchString(req.PhoneNumber):
		return apperrors.BadRequest("Phone number must be a valid international format e.g. +2348012345678.")
	case len(req.Password) < 8:
		return apperrors.BadRequest("Password must be at least 8 characters.")
	}
	return nil
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
