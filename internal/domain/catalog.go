package domain

import "context"

// Theme groups cursuses under a top-level subject ("Musique", "Cuisine").
// Deleting a theme cascades to its cursuses.
type Theme struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AuditFields
}

// Cursus is a purchasable course belonging to exactly one theme. It owns an
// ordered sequence of lessons; deleting a cursus cascades to them.
type Cursus struct {
	ID          string  `json:"id"`
	ThemeID     string  `json:"themeId"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"` // EUR, 2 fractional digits
	AuditFields
}

// Lesson is the smallest purchasable and validatable unit of content.
type Lesson struct {
	ID          string  `json:"id"`
	CursusID    string  `json:"cursusId"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Position    int     `json:"position"` // display order within the cursus
	AuditFields
}

// CatalogueCursus is a cursus with its lessons attached, as served on the
// catalogue listing.
type CatalogueCursus struct {
	Cursus
	Lessons []*Lesson `json:"lessons"`
}

// CatalogueTheme is a theme with its cursuses attached.
type CatalogueTheme struct {
	Theme
	Cursuses []*CatalogueCursus `json:"cursuses"`
}

// CatalogRepository defines data access for the theme/cursus/lesson tree.
type CatalogRepository interface {
	CreateTheme(ctx context.Context, theme *Theme) error
	CreateCursus(ctx context.Context, cursus *Cursus) error
	CreateLesson(ctx context.Context, lesson *Lesson) error

	GetTheme(ctx context.Context, id string) (*Theme, error)
	GetCursus(ctx context.Context, id string) (*Cursus, error)
	GetLesson(ctx context.Context, id string) (*Lesson, error)

	ListThemes(ctx context.Context) ([]*Theme, error)
	ListCursusesByTheme(ctx context.Context, themeID string) ([]*Cursus, error)
	ListLessonsByCursus(ctx context.Context, cursusID string) ([]*Lesson, error)
	CountLessons(ctx context.Context, cursusID string) (int, error)
}
