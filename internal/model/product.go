package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product master data
type Product struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Category    string         `json:"category" gorm:"type:varchar(100);not null;index"`
	Brand       string         `json:"brand,omitempty" gorm:"type:varchar(100)"`
	SKU         string         `json:"sku" gorm:"type:varchar(100);unique;not null"`
	Price       float64        `json:"price" gorm:"not null;default:0"`
	Stock       int            `json:"stock" gorm:"default:0"`
	Description string         `json:"description" gorm:"type:text"`
	Class       string         `json:"class,omitempty" gorm:"type:varchar(100)"`
	Sizes       string         `json:"sizes,omitempty" gorm:"type:varchar(255)"`
	Colors      string         `json:"colors,omitempty" gorm:"type:varchar(255)"`
	ImageURL    string         `json:"image_url" gorm:"type:varchar(512);not null"`
	OwnerID     uint           `json:"owner_id" gorm:"index"`
	Images      []ProductImage `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// ProductImage is one stored image belonging to a product. StorageID is
// the object store's handle, kept so the object can be deleted later.
type ProductImage struct {
	ID        uint   `json:"-" gorm:"primarykey"`
	ProductID uint   `json:"-" gorm:"index;not null"`
	URL       string `json:"url" gorm:"type:varchar(512);not null"`
	StorageID string `json:"storage_id,omitempty" gorm:"type:varchar(255)"`
	Position  int    `json:"position"`
}
