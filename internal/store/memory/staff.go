package memory

import (
	"context"

	"bistro-pos/internal/staff"
)

type staffRepo struct {
	s *Store
}

func (r *staffRepo) GetByID(ctx context.Context, id int64) (*staff.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.staff[id]
	if !ok {
		return nil, errStaffNotFound(id)
	}
	cp := *m
	return &cp, nil
}

func (r *staffRepo) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if m, ok := r.s.staff[id]; ok {
			names[id] = m.Name
		}
	}
	return names, nil
}

// AddStaff registers a staff member and returns it with its id.
func (s *Store) AddStaff(name, email, role string) *staff.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextStaffID++
	m := &staff.Member{ID: s.nextStaffID, Name: name, Email: email, Role: role}
	s.staff[m.ID] = m
	cp := *m
	return &cp
}
