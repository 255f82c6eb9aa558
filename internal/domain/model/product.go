package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidProduct = errors.New("invalid product")

// Product is a catalog entry. The cart keeps a copy taken at add time.
type Product struct {
	ID           string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description,omitempty"`
	Category     string          `gorm:"type:varchar(100);index" json:"category,omitempty"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image        string          `gorm:"type:varchar(512)" json:"image,omitempty"`
	Sizes        []string        `gorm:"serializer:json" json:"sizes,omitempty"`
	Applications []string        `gorm:"serializer:json" json:"applications,omitempty"`
	Features     []string        `gorm:"serializer:json" json:"features,omitempty"`
	IsActive     bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Validate checks the fields every consumer relies on.
// It runs where products enter the system, not on cart mutation.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.Join(ErrInvalidProduct, errors.New("id is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.Join(ErrInvalidProduct, errors.New("name is required"))
	}
	if p.Price.IsNegative() {
		return errors.Join(ErrInvalidProduct, errors.New("price must be >= 0"))
	}
	return nil
}
