package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"foodgram/internal/models"
)

// ShoppingListService builds the aggregated shopping-list export for a
// user's cart.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// ShoppingItem is one aggregated ingredient total.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

// ShoppingList is the aggregation result: ingredient totals plus the
// recipes they came from.
type ShoppingList struct {
	Items   []ShoppingItem
	Recipes []models.Recipe
}

// Build selects every recipe in the user's cart, joins the ingredient
// lines, groups by (name, unit) and sums the amounts, ordered by name.
func (s *ShoppingListService) Build(userID uint) (*ShoppingList, error) {
	var items []ShoppingItem
	err := s.db.Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	var recipes []models.Recipe
	err = s.db.Preload("Author").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
		Where("shopping_carts.user_id = ?", userID).
		Order("recipes.name").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}

	return &ShoppingList{Items: items, Recipes: recipes}, nil
}

// Render produces the plain-text report.
func (l *ShoppingList) Render(now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Shopping list generated at %s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "Recipes: %d, ingredients: %d\n\n", len(l.Recipes), len(l.Items))

	for i, item := range l.Items {
		fmt.Fprintf(&sb, "%d. %d %s %s\n", i+1, item.Total, item.MeasurementUnit, capitalize(item.Name))
	}

	if len(l.Recipes) > 0 {
		sb.WriteString("\nFor recipes:\n")
		for _, r := range l.Recipes {
			fmt.Fprintf(&sb, "- %s (%s %s)\n", r.Name, r.Author.FirstName, r.Author.LastName)
		}
	}
	return sb.String()
}

// Filename returns the timestamped attachment name.
func (l *ShoppingList) Filename(now time.Time) string {
	return fmt.Sprintf("shopping_list_%s.txt", now.Format("20060102_150405"))
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
