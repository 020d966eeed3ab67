package transport

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/Skotchmaster/budget_api/internal/service"
)

const (
	MinPasswordLength = 6
	// bcrypt only accepts up to 72 bytes
	MaxPasswordLength = 72
	// numbers without a leading + are read as US numbers
	DefaultPhoneRegion = "US"
)

var phoneNumber = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
})

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (r SignUpRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.Required, phoneNumber),
	)
}

func (r SignUpRequest) Input() service.RegisterInput {
	return service.RegisterInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
	)
}

type RefreshRequest struct {
	Token string `json:"token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

type LogoutRequest struct {
	Email string `json:"email"`
}

func (r LogoutRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateProductRequest struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Price, validation.NotNil),
	)
}

type PatchProductRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

func (r PatchProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Price, validation.Min(0.0)),
	)
}

func (r PatchProductRequest) Patch() service.ProductPatch {
	return service.ProductPatch{Name: r.Name, Price: r.Price}
}

type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r ItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, is.UUID),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

type CreateTransactionRequest struct {
	UserID string        `json:"userId"`
	Items  []ItemRequest `json:"items"`
}

func (r CreateTransactionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
		validation.Field(&r.Items, validation.Required),
	)
}

// UpdateTransactionRequest leaves Items nil when the body has no items key,
// which is different from an explicitly empty list.
type UpdateTransactionRequest struct {
	Items *[]ItemRequest `json:"items"`
}

func (r UpdateTransactionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.NilOrNotEmpty),
	)
}

func ItemInputs(items []ItemRequest) ([]service.ItemInput, error) {
	out := make([]service.ItemInput, 0, len(items))
	for _, it := range items {
		id, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, service.ItemInput{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}
