package models

import (
	"time"
)

type Recipe struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"pub_date"`
	UpdatedAt time.Time `json:"-"`
	AuthorID  uint      `gorm:"not null;index" json:"-"`
	Author    User      `json:"-"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	// Image holds the storage path of the uploaded image.
	Image       string `gorm:"size:255;not null" json:"-"`
	Text        string `gorm:"type:text;not null" json:"text"`
	CookingTime int    `gorm:"not null;check:cooking_time >= 1" json:"cooking_time"`
	// ShortCode is derived from ID once at creation and never changes.
	ShortCode   string             `gorm:"size:16;uniqueIndex" json:"-"`
	Ingredients []RecipeIngredient `json:"-"`
}

// RecipeIngredient is one ingredient line of a recipe. A recipe may not
// reference the same ingredient twice; the API layer enforces that.
type RecipeIngredient struct {
	ID           uint       `gorm:"primarykey" json:"-"`
	RecipeID     uint       `gorm:"not null;index" json:"-"`
	IngredientID uint       `gorm:"not null" json:"id"`
	Ingredient   Ingredient `json:"-"`
	Amount       int        `gorm:"not null;check:amount >= 1" json:"amount"`
}

type Favorite struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint `gorm:"not null;uniqueIndex:idx_favorite_pair"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_favorite_pair"`
}

type ShoppingCart struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_pair"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_cart_pair"`
}
