package models

// Ingredient is flat reference data: a name plus the unit its amounts are
// measured in. Name and unit are free text, no uniqueness is enforced.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:100;not null;index" json:"name"`
	MeasurementUnit string `gorm:"size:100;not null" json:"measurement_unit"`
}

// Tag is flat reference data as well; tags are not attached to recipes.
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:32;not null" json:"name"`
	Slug string `gorm:"size:32;uniqueIndex;not null" json:"slug"`
}
