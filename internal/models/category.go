package models

// Category is the closed event taxonomy
type Category string

const (
	CategoryRetreat    Category = "retreat"
	CategoryMass       Category = "mass"
	CategoryLecture    Category = "lecture"
	CategoryPilgrimage Category = "pilgrimage"
	CategoryYouth      Category = "youth"
	CategoryCulture    Category = "culture"
	CategoryMission    Category = "mission"
)

// DefaultCategory is returned when no classification rule matches
const DefaultCategory = CategoryMission

// Categories lists every member of the taxonomy
func Categories() []Category {
	return []Category{
		CategoryRetreat,
		CategoryMass,
		CategoryLecture,
		CategoryPilgrimage,
		CategoryYouth,
		CategoryCulture,
		CategoryMission,
	}
}

// IsValid reports whether c is a member of the taxonomy
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
