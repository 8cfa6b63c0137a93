package model

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var builtinCategories = []Category{
	{ID: "work", Name: "Work", Color: "blue", Icon: "💼"},
	{ID: "personal", Name: "Personal", Color: "green", Icon: "🏠"},
	{ID: "study", Name: "Study", Color: "purple", Icon: "📚"},
	{ID: "health", Name: "Health", Color: "red", Icon: "❤"},
	{ID: "shopping", Name: "Shopping", Color: "yellow", Icon: "🛒"},
}

// Categories returns the built-in category list. The slice is a copy.
func Categories() []Category {
	return append([]Category(nil), builtinCategories...)
}

// LookupCategory resolves id against the built-in list. Dangling ids return
// false rather than an error.
func LookupCategory(id string) (Category, bool) {
	for _, category := range builtinCategories {
		if category.ID == id {
			return category, true
		}
	}
	return Category{}, false
}
