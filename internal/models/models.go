package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string    `gorm:"column:encrypted_password;not null" json:"-"`
	FirstName    string    `gorm:"not null"                      json:"firstName"`
	LastName     string    `gorm:"not null"                      json:"lastName"`
	Phone        string    `gorm:"not null"                      json:"phone"`
	RefreshToken *string   `                                     json:"refreshToken,omitempty"`
	CreatedAt    time.Time `                                     json:"createdAt"`
	UpdatedAt    time.Time `                                     json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Sanitized returns a copy without the credential hash and the refresh token.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}

type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Name      string    `gorm:"uniqueIndex;not null"  json:"name"`
	Price     float64   `gorm:"not null"              json:"price"`
	CreatedAt time.Time `                             json:"createdAt"`
	UpdatedAt time.Time `                             json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Transaction struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;index;not null"    json:"userId"`
	User      *User             `gorm:"foreignKey:UserID"           json:"user,omitempty"`
	Items     []TransactionItem `gorm:"foreignKey:TransactionID"    json:"items"`
	CreatedAt time.Time         `gorm:"index"                       json:"createdAt"`
	UpdatedAt time.Time         `                                   json:"updatedAt"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"                 json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;index;not null"             json:"transactionId"`
	ProductID     uuid.UUID `gorm:"type:uuid;index;not null"             json:"productId"`
	Product       *Product  `gorm:"foreignKey:ProductID"                 json:"product,omitempty"`
	Quantity      int       `gorm:"not null;check:quantity>0"            json:"quantity"`
	Position      int       `gorm:"not null;default:0"                  json:"-"`
}

func (i *TransactionItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &Product{}, &Transaction{}, &TransactionItem{}}
}
