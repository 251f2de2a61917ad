package auth

import (
	"context"
	"errors"

	"food-ordering-api/apperrors"
	"food-ordering-api/models"
)

// AccountSummary is the public view of the signed-in account.
type AccountSummary struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	Role             models.UserRole `json:"role"`
	RestaurantID     *uint           `json:"restaurantId,omitempty"`
	DeliveryPersonID *uint           `json:"deliveryPersonId,omitempty"`
}

type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureUnique(ctx context.Context, email, username string) error
	Create(ctx context.Context, user *models.User) error
}

type RestaurantFinder interface {
	FindByOwner(ctx context.Context, ownerID uint) (*models.Restaurant, error)
}

type DeliveryPersonFinder interface {
	FindByUserID(ctx context.Context, userID uint) (*models.DeliveryPerson, error)
}

type Service struct {
	accounts    AccountStore
	restaurants RestaurantFinder
	couriers    DeliveryPersonFinder
	tokens      *Tokens
}

func NewService(accounts AccountStore, restaurants RestaurantFinder, couriers DeliveryPersonFinder, tokens *Tokens) *Service {
	return &Service{accounts: accounts, restaurants: restaurants, couriers: couriers, tokens: tokens}
}

func (s *Service) Tokens() *Tokens { return s.tokens }

// SignIn checks the credentials and issues a token. A disabled account is
// rejected before the password is compared.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *AccountSummary, error) {
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user.Disabled {
		return "", nil, apperrors.ErrDisabled
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", nil, apperrors.ErrBadCredentials
	}
	return s.issue(ctx, user)
}

type SignUpInput struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Password string
}

// SignUp registers a customer account and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (string, *AccountSummary, error) {
	if err := s.accounts.EnsureUnique(ctx, in.Email, in.Username); err != nil {
		return "", nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}
	user := &models.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		return "", nil, err
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *models.User) (string, *AccountSummary, error) {
	summary := &AccountSummary{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
	switch user.Role {
	case models.RoleRestaurantOwner:
		r, err := s.restaurants.FindByOwner(ctx, user.ID)
		if err != nil && !errors.Is(err, apperrors.ErrRestaurantNotFound) {
			return "", nil, err
		}
		if r != nil {
			summary.RestaurantID = &r.ID
		}
	case models.RoleDeliveryPerson:
		dp, err := s.couriers.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, apperrors.ErrDeliveryPersonNotFound) {
			return "", nil, err
		}
		if dp != nil {
			summary.DeliveryPersonID = &dp.ID
			summary.RestaurantID = &dp.RestaurantID
		}
	}

	token, err := s.tokens.Issue(user, summary.RestaurantID, summary.DeliveryPersonID)
	if err != nil {
		return "", nil, apperrors.Internal("Failed to generate token", err)
	}
	return token, summary, nil
}
