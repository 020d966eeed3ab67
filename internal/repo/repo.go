package repo

import (
	"errors"

	"gorm.io/gorm"
)

var ErrProductInUse = errors.New("product is used in transactions")

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
