package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
)

// In-memory repositories backing the service tests. They honor the same
// uniqueness rules the Postgres schema enforces.

type memCatalogRepo struct {
	themes   []*domain.Theme
	cursuses []*domain.Cursus
	lessons  []*domain.Lesson
	nextID   int
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{}
}

func (m *memCatalogRepo) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memCatalogRepo) CreateTheme(_ context.Context, t *domain.Theme) error {
	if t.ID == "" {
		t.ID = m.genID("theme")
	}
	t.CreatedAt = time.Now()
	m.themes = append(m.themes, t)
	return nil
}

func (m *memCatalogRepo) CreateCursus(_ context.Context, c *domain.Cursus) error {
	if c.ID == "" {
		c.ID = m.genID("cursus")
	}
	c.CreatedAt = time.Now()
	m.cursuses = append(m.cursuses, c)
	return nil
}

func (m *memCatalogRepo) CreateLesson(_ context.Context, l *domain.Lesson) error {
	if l.ID == "" {
		l.ID = m.genID("lesson")
	}
	l.CreatedAt = time.Now()
	m.lessons = append(m.lessons, l)
	return nil
}

func (m *memCatalogRepo) GetTheme(_ context.Context, id string) (*domain.Theme, error) {
	for _, t := range m.themes {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCatalogRepo) GetCursus(_ context.Context, id string) (*domain.Cursus, error) {
	for _, c := range m.cursuses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCatalogRepo) GetLesson(_ context.Context, id string) (*domain.Lesson, error) {
	for _, l := range m.lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCatalogRepo) ListThemes(_ context.Context) ([]*domain.Theme, error) {
	return m.themes, nil
}

func (m *memCatalogRepo) ListCursusesByTheme(_ context.Context, themeID string) ([]*domain.Cursus, error) {
	var out []*domain.Cursus
	for _, c := range m.cursuses {
		if c.ThemeID == themeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCatalogRepo) ListLessonsByCursus(_ context.Context, cursusID string) ([]*domain.Lesson, error) {
	var out []*domain.Lesson
	for _, l := range m.lessons {
		if l.CursusID == cursusID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memCatalogRepo) CountLessons(_ context.Context, cursusID string) (int, error) {
	n := 0
	for _, l := range m.lessons {
		if l.CursusID == cursusID {
			n++
		}
	}
	return n, nil
}

type memPurchaseRepo struct {
	lessonPurchases map[string]*domain.Purchase // user|lesson
	cursusPurchases map[string]*domain.Purchase // user|cursus
	order           []*domain.Purchase
	nextID          int
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{
		lessonPurchases: map[string]*domain.Purchase{},
		cursusPurchases: map[string]*domain.Purchase{},
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *memPurchaseRepo) genID() string {
	m.nextID++
	return fmt.Sprintf("purchase-%d", m.nextID)
}

func (m *memPurchaseRepo) CreateLessonPurchase(_ context.Context, p *domain.Purchase) (bool, error) {
	key := pairKey(p.UserID, p.LessonID)
	if _, ok := m.lessonPurchases[key]; ok {
		return false, nil
	}
	if p.ID == "" {
		p.ID = m.genID()
	}
	p.Kind = domain.PurchaseKindLesson
	p.CreatedAt = time.Now()
	m.lessonPurchases[key] = p
	m.order = append(m.order, p)
	return true, nil
}

func (m *memPurchaseRepo) CreateCursusPurchase(ctx context.Context, p *domain.Purchase, lessons []*domain.Lesson) (*domain.CursusPurchaseResult, error) {
	result := &domain.CursusPurchaseResult{}

	key := pairKey(p.UserID, p.CursusID)
	if existing, ok := m.cursusPurchases[key]; ok {
		result.CursusPurchase = existing
	} else {
		if p.ID == "" {
			p.ID = m.genID()
		}
		p.Kind = domain.PurchaseKindCursus
		p.CreatedAt = time.Now()
		m.cursusPurchases[key] = p
		m.order = append(m.order, p)
		result.CursusPurchase = p
		result.CursusCreated = true
	}

	for _, lesson := range lessons {
		lp := &domain.Purchase{
			UserID:     p.UserID,
			LessonID:   lesson.ID,
			PaymentRef: p.PaymentRef,
		}
		created, err := m.CreateLessonPurchase(ctx, lp)
		if err != nil {
			return nil, err
		}
		if created {
			result.LessonsCreated++
		}
		result.LessonPurchases = append(result.LessonPurchases, m.lessonPurchases[pairKey(p.UserID, lesson.ID)])
	}
	return result, nil
}

func (m *memPurchaseRepo) GetLessonPurchase(_ context.Context, userID, lessonID string) (*domain.Purchase, error) {
	if p, ok := m.lessonPurchases[pairKey(userID, lessonID)]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPurchaseRepo) GetCursusPurchase(_ context.Context, userID, cursusID string) (*domain.Purchase, error) {
	if p, ok := m.cursusPurchases[pairKey(userID, cursusID)]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPurchaseRepo) HasLessonPurchase(_ context.Context, userID, lessonID string) (bool, error) {
	_, ok := m.lessonPurchases[pairKey(userID, lessonID)]
	return ok, nil
}

func (m *memPurchaseRepo) HasCursusPurchase(_ context.Context, userID, cursusID string) (bool, error) {
	_, ok := m.cursusPurchases[pairKey(userID, cursusID)]
	return ok, nil
}

func (m *memPurchaseRepo) ListByUser(_ context.Context, userID string) ([]*domain.Purchase, error) {
	var out []*domain.Purchase
	for _, p := range m.order {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPurchaseRepo) ListCursusPurchases(_ context.Context) ([]*domain.Purchase, error) {
	var out []*domain.Purchase
	for _, p := range m.order {
		if p.Kind == domain.PurchaseKindCursus {
			out = append(out, p)
		}
	}
	return out, nil
}

type memValidationRepo struct {
	validations map[string]*domain.LessonValidation // user|lesson
	catalog     *memCatalogRepo
	nextID      int
}

func newMemValidationRepo(catalog *memCatalogRepo) *memValidationRepo {
	return &memValidationRepo{validations: map[string]*domain.LessonValidation{}, catalog: catalog}
}

func (m *memValidationRepo) Get(_ context.Context, userID, lessonID string) (*domain.LessonValidation, error) {
	if v, ok := m.validations[pairKey(userID, lessonID)]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memValidationRepo) MarkValidated(_ context.Context, v *domain.LessonValidation) error {
	key := pairKey(v.UserID, v.LessonID)
	if existing, ok := m.validations[key]; ok {
		existing.Validated = true
		if existing.ValidatedAt == nil {
			now := time.Now()
			existing.ValidatedAt = &now
		}
		*v = *existing
		return nil
	}
	m.nextID++
	v.ID = fmt.Sprintf("validation-%d", m.nextID)
	v.Validated = true
	now := time.Now()
	v.ValidatedAt = &now
	v.CreatedAt = now
	m.validations[key] = v
	return nil
}

func (m *memValidationRepo) CountValidatedInCursus(ctx context.Context, userID, cursusID string) (int, error) {
	n := 0
	for _, v := range m.validations {
		if v.UserID != userID || !v.Validated {
			continue
		}
		lesson, err := m.catalog.GetLesson(ctx, v.LessonID)
		if err != nil {
			continue
		}
		if lesson.CursusID == cursusID {
			n++
		}
	}
	return n, nil
}

type memCertificationRepo struct {
	certs  map[string]*domain.Certification // user|cursus
	order  []*domain.Certification
	nextID int
}

func newMemCertificationRepo() *memCertificationRepo {
	return &memCertificationRepo{certs: map[string]*domain.Certification{}}
}

func (m *memCertificationRepo) Create(_ context.Context, c *domain.Certification) (bool, error) {
	key := pairKey(c.UserID, c.CursusID)
	if _, ok := m.certs[key]; ok {
		return false, nil
	}
	m.nextID++
	c.ID = fmt.Sprintf("cert-%d", m.nextID)
	if c.ObtainedAt.IsZero() {
		c.ObtainedAt = time.Now()
	}
	c.CreatedAt = c.ObtainedAt
	m.certs[key] = c
	m.order = append(m.order, c)
	return true, nil
}

func (m *memCertificationRepo) Get(_ context.Context, userID, cursusID string) (*domain.Certification, error) {
	if c, ok := m.certs[pairKey(userID, cursusID)]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCertificationRepo) ListByUser(_ context.Context, userID string) ([]*domain.Certification, error) {
	var out []*domain.Certification
	for _, c := range m.order {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrAlreadyExists
	}
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) Update(_ context.Context, u *domain.User) error {
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

// fixture builds a one-theme catalog with a single cursus and its lessons.
func fixture(catalog *memCatalogRepo, cursusPrice float64, lessonPrices ...float64) (*domain.Cursus, []*domain.Lesson) {
	ctx := context.Background()
	theme := &domain.Theme{Title: "Test Theme"}
	_ = catalog.CreateTheme(ctx, theme)

	cursus := &domain.Cursus{ThemeID: theme.ID, Title: "Test Cursus", Price: cursusPrice}
	_ = catalog.CreateCursus(ctx, cursus)

	lessons := make([]*domain.Lesson, 0, len(lessonPrices))
	for i, price := range lessonPrices {
		l := &domain.Lesson{CursusID: cursus.ID, Title: fmt.Sprintf("Lesson %d", i+1), Price: price, Position: i + 1}
		_ = catalog.CreateLesson(ctx, l)
		lessons = append(lessons, l)
	}
	return cursus, lessons
}
