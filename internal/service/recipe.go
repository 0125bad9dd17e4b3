package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/models"
	"foodgram/internal/shortlink"
)

// RecipeService handles recipe CRUD and the favorite/cart bookmarks.
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	codec  *shortlink.Codec
}

func NewRecipeService(db *gorm.DB, images ImageStore, codec *shortlink.Codec) *RecipeService {
	return &RecipeService{db: db, images: images, codec: codec}
}

// IngredientLine is one submitted ingredient row.
type IngredientLine struct {
	IngredientID uint
	Amount       int
}

// RecipeInput carries the writable recipe fields. Image is a base64
// payload; ImageSet distinguishes an explicitly blank submission from an
// omitted one.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	ImageSet    bool
	Ingredients []IngredientLine
}

// ListFilter narrows the recipe listing. UserID is the authenticated
// caller (zero for anonymous); Favorited and InCart require it.
type ListFilter struct {
	AuthorID  uint
	Favorited bool
	InCart    bool
	UserID    uint
}

// List returns one page of recipes, newest first, plus the total count.
// The bookmark filters short-circuit to an empty result for anonymous
// callers.
func (s *RecipeService) List(f ListFilter, offset, limit int) ([]models.Recipe, int64, error) {
	if (f.Favorited || f.InCart) && f.UserID == 0 {
		return nil, 0, nil
	}

	q := s.db.Model(&models.Recipe{})
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.Favorited {
		q = q.Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", f.UserID)
	}
	if f.InCart {
		q = q.Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
			Where("shopping_carts.user_id = ?", f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := q.Preload("Author").Preload("Ingredients.Ingredient").
		Order("recipes.created_at DESC, recipes.id DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Get fetches a recipe with its author and ingredient lines.
func (s *RecipeService) Get(id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.Preload("Author").Preload("Ingredients.Ingredient").First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Create stores a recipe for the author and derives its short code from
// the new numeric id.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error) {
	if in.Image == "" {
		if in.ImageSet {
			return nil, fieldError("image", "this field may not be blank")
		}
		return nil, fieldError("image", "this field is required")
	}
	lines, err := s.validateLines(in.Ingredients)
	if err != nil {
		return nil, err
	}
	data, ext, err := DecodeBase64Image(in.Image)
	if err != nil {
		return nil, fieldError("image", "invalid image")
	}
	path, err := s.images.Save(ctx, "recipes/images", data, ext)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Image:       path,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		return tx.Model(&recipe).Update("short_code", s.codec.Encode(recipe.ID)).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(recipe.ID)
}

// Update replaces the recipe's fields and all of its ingredient lines.
// Only the author may update; ingredients must be present; an omitted
// image keeps the stored one while an explicitly blank one is rejected.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uint, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrNotOwner
	}
	lines, err := s.validateLines(in.Ingredients)
	if err != nil {
		return nil, err
	}

	imagePath := recipe.Image
	if in.ImageSet || in.Image != "" {
		if in.Image == "" {
			return nil, fieldError("image", "this field may not be blank")
		}
		data, ext, err := DecodeBase64Image(in.Image)
		if err != nil {
			return nil, fieldError("image", "invalid image")
		}
		imagePath, err = s.images.Save(ctx, "recipes/images", data, ext)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
			"image":        imagePath,
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipeID
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(recipeID)
}

// Delete removes a recipe; author-only.
func (s *RecipeService) Delete(userID, recipeID uint) error {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrNotOwner
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCart{},
		} {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, recipeID).Error
	})
}

// ShortLink renders the short-link URL for a recipe.
func (s *RecipeService) ShortLink(base string, recipe *models.Recipe) string {
	return fmt.Sprintf("%s/r/%s", base, recipe.ShortCode)
}

// ResolveShortCode decodes a short code and loads the recipe it names.
func (s *RecipeService) ResolveShortCode(code string) (*models.Recipe, error) {
	id, err := s.codec.Decode(code)
	if err != nil {
		return nil, ErrNotFound
	}
	recipe, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	// Guard against codes from a different key that happen to decode.
	if recipe.ShortCode != code {
		return nil, ErrNotFound
	}
	return recipe, nil
}

// Favorite bookmarks a recipe; favoriting twice is a client error.
func (s *RecipeService) Favorite(userID, recipeID uint) (*models.Recipe, error) {
	return s.addBookmark(userID, recipeID, &models.Favorite{UserID: userID, RecipeID: recipeID}, &models.Favorite{})
}

// Unfavorite removes the bookmark; removing a missing one is a client
// error.
func (s *RecipeService) Unfavorite(userID, recipeID uint) error {
	return s.removeBookmark(userID, recipeID, &models.Favorite{})
}

// AddToCart puts a recipe in the user's shopping cart.
func (s *RecipeService) AddToCart(userID, recipeID uint) (*models.Recipe, error) {
	return s.addBookmark(userID, recipeID, &models.ShoppingCart{UserID: userID, RecipeID: recipeID}, &models.ShoppingCart{})
}

// RemoveFromCart takes a recipe out of the cart.
func (s *RecipeService) RemoveFromCart(userID, recipeID uint) error {
	return s.removeBookmark(userID, recipeID, &models.ShoppingCart{})
}

// IsFavorited reports whether the user favorited the recipe.
func (s *RecipeService) IsFavorited(userID, recipeID uint) bool {
	return s.pairExists(userID, recipeID, &models.Favorite{})
}

// IsInCart reports whether the recipe is in the user's cart.
func (s *RecipeService) IsInCart(userID, recipeID uint) bool {
	return s.pairExists(userID, recipeID, &models.ShoppingCart{})
}

func (s *RecipeService) addBookmark(userID, recipeID uint, row, probe interface{}) (*models.Recipe, error) {
	recipe, err := s.Get(recipeID)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(probe).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return translateConflict(tx.Create(row).Error)
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) removeBookmark(userID, recipeID uint, model interface{}) error {
	if _, err := s.Get(recipeID); err != nil {
		return err
	}
	res := s.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotExists
	}
	return nil
}

func (s *RecipeService) pairExists(userID, recipeID uint, model interface{}) bool {
	if userID == 0 {
		return false
	}
	var count int64
	s.db.Model(model).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count)
	return count > 0
}

// validateLines checks the submitted ingredient set: at least one line,
// amounts >= 1, no duplicate ingredient ids, and every id must exist.
func (s *RecipeService) validateLines(lines []IngredientLine) ([]models.RecipeIngredient, error) {
	if len(lines) == 0 {
		return nil, fieldError("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uint]bool, len(lines))
	out := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		if line.Amount < 1 {
			return nil, fieldError("ingredients", "amount must be at least 1")
		}
		if seen[line.IngredientID] {
			return nil, fieldError("ingredients", fmt.Sprintf("duplicate ingredient id %d", line.IngredientID))
		}
		seen[line.IngredientID] = true

		var count int64
		if err := s.db.Model(&models.Ingredient{}).Where("id = ?", line.IngredientID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fieldError("ingredients", fmt.Sprintf("unknown ingredient id %d", line.IngredientID))
		}
		out = append(out, models.RecipeIngredient{
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
		})
	}
	return out, nil
}
