package memory

import (
	"context"
	"fmt"
	"sort"

	"bistro-pos/internal/db"
	"bistro-pos/internal/menu"
	"bistro-pos/internal/money"
	"bistro-pos/internal/table"
)

type tableRepo struct {
	s *Store
}

func (r *tableRepo) GetAvailability(ctx context.Context, _ db.Querier, tableID int64) (table.Availability, error) {
	t, err := r.GetByID(ctx, tableID)
	if err != nil {
		return "", err
	}
	return t.Availability, nil
}

func (r *tableRepo) SetAvailability(ctx context.Context, _ db.Querier, tableID int64, a table.Availability) error {
	if !a.Valid() {
		return fmt.Errorf("unknown table availability %q", a)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.setTable(tableID, a)
}

func (r *tableRepo) GetByID(ctx context.Context, tableID int64) (*table.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tables[tableID]
	if !ok {
		return nil, errTableNotFound(tableID)
	}
	c := *t
	return &c, nil
}

func (r *tableRepo) List(ctx context.Context) ([]*table.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*table.Table, 0, len(r.s.tables))
	for _, t := range r.s.tables {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type menuRepo struct {
	s *Store
}

func (r *menuRepo) GetPrice(ctx context.Context, _ db.Querier, menuItemID int64) (money.Cents, string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.priceLocked(menuItemID)
}

func (r *menuRepo) ListAvailable(ctx context.Context) ([]*menu.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*menu.Item{}
	for _, it := range r.s.menu {
		if it.Available {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *menuRepo) ListCategories(ctx context.Context) ([]*menu.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*menu.Category{}
	for _, c := range r.s.cats {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddMenuCategory registers a category; items join it via SetMenuItemCategory.
func (s *Store) AddMenuCategory(name string) *menu.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCatID++
	c := &menu.Category{ID: s.nextCatID, Name: name}
	s.cats[c.ID] = c
	cp := *c
	return &cp
}

func (s *Store) SetMenuItemCategory(id, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.menu[id]
	if !ok {
		return errMenuItemNotFound(id)
	}
	it.CategoryID = &categoryID
	return nil
}

// AddTable registers an available table.
func (s *Store) AddTable(number, capacity int) *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTableID++
	t := &table.Table{ID: s.nextTableID, Number: number, Capacity: capacity, Availability: table.Available}
	s.tables[t.ID] = t
	c := *t
	return &c
}

func (s *Store) AddMenuItem(name string, price money.Cents, available bool) *menu.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMenuID++
	it := &menu.Item{ID: s.nextMenuID, Name: name, Price: price, Available: available}
	s.menu[it.ID] = it
	c := *it
	return &c
}

// SetMenuItemPrice changes the catalog price. Lines already on orders keep
// the price they were added with.
func (s *Store) SetMenuItemPrice(id int64, price money.Cents) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.menu[id]
	if !ok {
		return errMenuItemNotFound(id)
	}
	it.Price = price
	return nil
}

func (s *Store) SetMenuItemAvailable(id int64, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.menu[id]
	if !ok {
		return errMenuItemNotFound(id)
	}
	it.Available = available
	return nil
}

// SeedDemo fills an empty store with a small dining room and menu.
func SeedDemo(s *Store) {
	for i := 1; i <= 8; i++ {
		capacity := 2
		if i > 4 {
			capacity = 4
		}
		s.AddTable(i, capacity)
	}
	mains := s.AddMenuCategory("Mains")
	starters := s.AddMenuCategory("Starters")
	drinks := s.AddMenuCategory("Drinks")
	desserts := s.AddMenuCategory("Desserts")

	for _, seed := range []struct {
		name     string
		price    string
		category int64
	}{
		{"Margherita Pizza", "8.99", mains.ID},
		{"Spaghetti Carbonara", "12.50", mains.ID},
		{"Caesar Salad", "7.25", starters.ID},
		{"Garlic Bread", "3.99", starters.ID},
		{"Lemonade", "2.99", drinks.ID},
		{"Espresso", "2.50", drinks.ID},
		{"Tiramisu", "6.75", desserts.ID},
	} {
		it := s.AddMenuItem(seed.name, money.MustParse(seed.price), true)
		_ = s.SetMenuItemCategory(it.ID, seed.category)
	}

	s.AddStaff("Admin", "admin@bistro.test", "admin")
	s.AddStaff("Casey", "casey@bistro.test", "cashier")
	s.AddStaff("Wren", "wren@bistro.test", "waiter")
}
