package model

// Category is a user-defined label tasks can be tagged with.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewCategory creates a Category with a generated ID.
func NewCategory(name string) Category {
	return Category{ID: NewID(), Name: name}
}
