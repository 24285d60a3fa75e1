package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore is the in-process Store used when PostgreSQL is unavailable and in tests.
// Transactions hold the store mutex for their whole duration and work on a cloned
// state that replaces the live one only when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	now   func() time.Time
}

type memoryState struct {
	units         map[string]domain.Unit
	residents     map[domain.Population]map[string]domain.Resident
	records       []domain.OccupancyRecord // insertion order
	sectors       map[string]domain.Sector
	users         map[string]domain.User
	importLogs    map[string]domain.ImportLog
	notifications []domain.Notification // insertion order
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memoryView)(nil)
)

func newMemoryState() *memoryState {
	return &memoryState{
		units: map[string]domain.Unit{},
		residents: map[domain.Population]map[string]domain.Resident{
			domain.PopulationEgyptian: {},
			domain.PopulationRussian:  {},
		},
		sectors:    map[string]domain.Sector{},
		users:      map[string]domain.User{},
		importLogs: map[string]domain.ImportLog{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.units {
		c.units[k] = v
	}
	for pop, m := range s.residents {
		for k, v := range m {
			c.residents[pop][k] = v
		}
	}
	c.records = append([]domain.OccupancyRecord(nil), s.records...)
	for k, v := range s.sectors {
		c.sectors[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.importLogs {
		v.Errors = append(domain.ImportErrors(nil), v.Errors...)
		c.importLogs[k] = v
	}
	c.notifications = append([]domain.Notification(nil), s.notifications...)
	return c
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: newMemoryState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) root() *memoryView { return &memoryView{store: s} }

func (s *MemoryStore) Units() UnitsRepository                       { return s.root() }
func (s *MemoryStore) Residents() ResidentsRepository               { return s.root() }
func (s *MemoryStore) OccupancyRecords() OccupancyRecordsRepository { return s.root() }
func (s *MemoryStore) Sectors() SectorsRepository                   { return s.root() }
func (s *MemoryStore) Users() UsersRepository                       { return s.root() }
func (s *MemoryStore) ImportLogs() ImportLogsRepository             { return s.root() }
func (s *MemoryStore) Notifications() NotificationsRepository       { return s.root() }

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.root().InTx(ctx, fn)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// memoryView implements every repository. Outside a transaction tx is nil and each call
// locks the store; inside one, tx is the working copy and the lock is already held.
type memoryView struct {
	store *MemoryStore
	tx    *memoryState
}

func (v *memoryView) read(fn func(st *memoryState) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func (v *memoryView) Units() UnitsRepository                       { return v }
func (v *memoryView) Residents() ResidentsRepository               { return v }
func (v *memoryView) OccupancyRecords() OccupancyRecordsRepository { return v }
func (v *memoryView) Sectors() SectorsRepository                   { return v }
func (v *memoryView) Users() UsersRepository                       { return v }
func (v *memoryView) ImportLogs() ImportLogsRepository             { return v }
func (v *memoryView) Notifications() NotificationsRepository       { return v }
func (v *memoryView) Ping(context.Context) error                   { return nil }

func (v *memoryView) InTx(ctx context.Context, fn func(tx Store) error) error {
	if v.tx != nil {
		return fn(v)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := v.store.state.clone()
	if err := fn(&memoryView{store: v.store, tx: work}); err != nil {
		return err
	}
	v.store.state = work
	return nil
}

func (v *memoryView) now() time.Time { return v.store.now() }

func newID() string { return uuid.NewString() }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ---- units ----

func (v *memoryView) ListUnits(_ context.Context, f UnitFilters) ([]*domain.Unit, error) {
	out := []*domain.Unit{}
	err := v.read(func(st *memoryState) error {
		for _, u := range st.units {
			if f.Type != "" && u.Type != f.Type {
				continue
			}
			if f.Status != "" && u.Status != f.Status {
				continue
			}
			if f.Search != "" && !containsFold(u.Code, f.Search) && !containsFold(u.Name, f.Search) &&
				!containsFold(u.BuildingName.String, f.Search) {
				continue
			}
			if !f.Scope.Allows(u.Scope) {
				continue
			}
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (v *memoryView) GetUnit(_ context.Context, id string) (*domain.Unit, error) {
	var out *domain.Unit
	err := v.read(func(st *memoryState) error {
		u, ok := st.units[id]
		if !ok {
			return ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (v *memoryView) GetUnitByCode(_ context.Context, code string) (*domain.Unit, error) {
	var out *domain.Unit
	err := v.read(func(st *memoryState) error {
		for _, u := range st.units {
			if u.Code == code {
				u := u
				out = &u
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (v *memoryView) LockUnit(ctx context.Context, id string) (*domain.Unit, error) {
	return v.GetUnit(ctx, id)
}

func (v *memoryView) CreateUnit(_ context.Context, u *domain.Unit) (string, error) {
	var id string
	err := v.read(func(st *memoryState) error {
		for _, existing := range st.units {
			if existing.Code == u.Code {
				return fmt.Errorf("%w: units_code_unique", ErrDuplicate)
			}
		}
		row := *u
		row.ID = newID()
		row.CreatedAt, row.UpdatedAt = v.now(), v.now()
		if row.Status == "" {
			row.Status = domain.UnitStatusVacant
		}
		st.units[row.ID] = row
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) UpdateUnit(_ context.Context, u *domain.Unit) error {
	return v.read(func(st *memoryState) error {
		cur, ok := st.units[u.ID]
		if !ok {
			return ErrNotFound
		}
		for id, existing := range st.units {
			if id != u.ID && existing.Code == u.Code {
				return fmt.Errorf("%w: units_code_unique", ErrDuplicate)
			}
		}
		row := *u
		row.CurrentOccupants = cur.CurrentOccupants
		row.CreatedAt = cur.CreatedAt
		row.UpdatedAt = v.now()
		st.units[u.ID] = row
		return nil
	})
}

func (v *memoryView) SetOccupancy(_ context.Context, id string, occupants int, status domain.UnitStatus) error {
	return v.read(func(st *memoryState) error {
		u, ok := st.units[id]
		if !ok {
			return ErrNotFound
		}
		if occupants < 0 || occupants > u.Beds {
			return fmt.Errorf("units_occupancy_range: %d outside 0..%d", occupants, u.Beds)
		}
		u.CurrentOccupants = occupants
		u.Status = status
		u.UpdatedAt = v.now()
		st.units[id] = u
		return nil
	})
}

func (v *memoryView) DeleteUnit(_ context.Context, id string) error {
	return v.read(func(st *memoryState) error {
		if _, ok := st.units[id]; !ok {
			return ErrNotFound
		}
		delete(st.units, id)
		for _, m := range st.residents {
			for rid, r := range m {
				if r.LastUnitID.Valid && r.LastUnitID.String == id {
					r.LastUnitID.Valid, r.LastUnitID.String = false, ""
					m[rid] = r
				}
			}
		}
		return nil
	})
}

// ---- residents ----

func (st *memoryState) residentScope(r domain.Resident) domain.Scope {
	unitID := r.UnitID
	if !unitID.Valid {
		unitID = r.LastUnitID
	}
	if !unitID.Valid {
		return domain.GlobalScope()
	}
	return st.units[unitID.String].Scope
}

func (v *memoryView) ListResidents(_ context.Context, pop domain.Population, f ResidentFilters) ([]*domain.Resident, error) {
	out := []*domain.Resident{}
	err := v.read(func(st *memoryState) error {
		for _, r := range st.residents[pop] {
			if f.Status != "" && r.Status != f.Status {
				continue
			}
			if f.UnitID != "" && r.UnitID.String != f.UnitID {
				continue
			}
			if f.Search != "" && !containsFold(r.Name, f.Search) && !containsFold(r.DocumentNumber(), f.Search) &&
				!containsFold(r.Phone.String, f.Search) {
				continue
			}
			if !f.Scope.Allows(st.residentScope(r)) {
				continue
			}
			r := r
			out = append(out, &r)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return residentNewer(out[i], out[j]) })
	return out, err
}

// residentNewer orders by check-in date descending; residents of one bulk batch share a date, so id breaks the tie.
func residentNewer(a, b *domain.Resident) bool {
	if !a.CheckInDate.Equal(b.CheckInDate) {
		return a.CheckInDate.After(b.CheckInDate)
	}
	return a.ID < b.ID
}

func (v *memoryView) GetResident(_ context.Context, pop domain.Population, id string) (*domain.Resident, error) {
	var out *domain.Resident
	err := v.read(func(st *memoryState) error {
		r, ok := st.residents[pop][id]
		if !ok {
			return ErrNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (v *memoryView) LockResident(ctx context.Context, pop domain.Population, id string) (*domain.Resident, error) {
	return v.GetResident(ctx, pop, id)
}

func (v *memoryView) CreateResident(_ context.Context, r *domain.Resident) (string, error) {
	if !r.Population.Valid() {
		return "", fmt.Errorf("create resident: unknown population %q", r.Population)
	}
	var id string
	err := v.read(func(st *memoryState) error {
		row := *r
		row.ID = newID()
		row.CreatedAt, row.UpdatedAt = v.now(), v.now()
		st.residents[r.Population][row.ID] = row
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) UpdateResident(_ context.Context, r *domain.Resident) error {
	return v.read(func(st *memoryState) error {
		cur, ok := st.residents[r.Population][r.ID]
		if !ok {
			return ErrNotFound
		}
		cur.Name = r.Name
		cur.NationalID = r.NationalID
		cur.PassportNumber = r.PassportNumber
		cur.Nationality = r.Nationality
		cur.Gender = r.Gender
		cur.Phone = r.Phone
		cur.Shift = r.Shift
		cur.OCRConfidence = r.OCRConfidence
		cur.ImageURL = r.ImageURL
		cur.UpdatedAt = v.now()
		st.residents[r.Population][r.ID] = cur
		return nil
	})
}

func (v *memoryView) PlaceResident(_ context.Context, pop domain.Population, id, unitID string) error {
	return v.read(func(st *memoryState) error {
		r, ok := st.residents[pop][id]
		if !ok {
			return ErrNotFound
		}
		r.UnitID = domain.NewNullString(unitID)
		r.LastUnitID = domain.NewNullString(unitID)
		r.Status = domain.ResidentStatusActive
		r.UpdatedAt = v.now()
		st.residents[pop][id] = r
		return nil
	})
}

func (v *memoryView) CheckOutResident(_ context.Context, pop domain.Population, id string, at time.Time) error {
	return v.read(func(st *memoryState) error {
		r, ok := st.residents[pop][id]
		if !ok {
			return ErrNotFound
		}
		r.Status = domain.ResidentStatusCheckedOut
		r.CheckOutDate.Time, r.CheckOutDate.Valid = at, true
		r.UnitID.String, r.UnitID.Valid = "", false
		r.UpdatedAt = v.now()
		st.residents[pop][id] = r
		return nil
	})
}

func (v *memoryView) findActive(pop domain.Population, match func(domain.Resident) bool) (*domain.Resident, error) {
	var out *domain.Resident
	err := v.read(func(st *memoryState) error {
		for _, r := range st.residents[pop] {
			if r.Status != domain.ResidentStatusActive || !match(r) {
				continue
			}
			if out == nil || r.CheckInDate.After(out.CheckInDate) {
				r := r
				out = &r
			}
		}
		if out == nil {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (v *memoryView) FindActiveByDocument(_ context.Context, pop domain.Population, number string) (*domain.Resident, error) {
	return v.findActive(pop, func(r domain.Resident) bool { return r.DocumentNumber() == number })
}

func (v *memoryView) FindActiveByNameInUnit(_ context.Context, pop domain.Population, name, unitID string) (*domain.Resident, error) {
	name = strings.TrimSpace(name)
	return v.findActive(pop, func(r domain.Resident) bool {
		return r.UnitID.String == unitID && strings.EqualFold(strings.TrimSpace(r.Name), name)
	})
}

func (v *memoryView) ListActiveByUnit(_ context.Context, unitID string) ([]*domain.Resident, error) {
	var out []*domain.Resident
	err := v.read(func(st *memoryState) error {
		for _, pop := range []domain.Population{domain.PopulationEgyptian, domain.PopulationRussian} {
			var part []*domain.Resident
			for _, r := range st.residents[pop] {
				if r.Status == domain.ResidentStatusActive && r.UnitID.String == unitID {
					r := r
					part = append(part, &r)
				}
			}
			sort.Slice(part, func(i, j int) bool {
				if !part[i].CheckInDate.Equal(part[j].CheckInDate) {
					return part[i].CheckInDate.Before(part[j].CheckInDate)
				}
				return part[i].ID < part[j].ID
			})
			out = append(out, part...)
		}
		return nil
	})
	return out, err
}

func (v *memoryView) CountActiveByUnit(context.Context) (map[string]int, error) {
	counts := map[string]int{}
	err := v.read(func(st *memoryState) error {
		for _, m := range st.residents {
			for _, r := range m {
				if r.IsPlaced() {
					counts[r.UnitID.String]++
				}
			}
		}
		return nil
	})
	return counts, err
}

// ---- occupancy records ----

func (v *memoryView) AppendRecord(_ context.Context, rec *domain.OccupancyRecord) (string, error) {
	var id string
	err := v.read(func(st *memoryState) error {
		row := *rec
		row.ID = newID()
		row.CreatedAt = v.now()
		st.records = append(st.records, row)
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) ListRecords(_ context.Context, f RecordFilters) ([]*domain.OccupancyRecord, error) {
	out := []*domain.OccupancyRecord{}
	err := v.read(func(st *memoryState) error {
		for i := len(st.records) - 1; i >= 0; i-- {
			rec := st.records[i]
			if f.UnitID != "" && rec.UnitID != f.UnitID {
				continue
			}
			if f.ResidentID != "" && rec.ResidentID != f.ResidentID {
				continue
			}
			if f.Action != "" && rec.Action != f.Action {
				continue
			}
			if !f.Scope.Allows(st.units[rec.UnitID].Scope) {
				continue
			}
			out = append(out, &rec)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// ---- sectors ----

func (v *memoryView) ListSectors(context.Context) ([]*domain.Sector, error) {
	out := []*domain.Sector{}
	err := v.read(func(st *memoryState) error {
		for _, s := range st.sectors {
			s := s
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (v *memoryView) GetSector(_ context.Context, id string) (*domain.Sector, error) {
	var out *domain.Sector
	err := v.read(func(st *memoryState) error {
		s, ok := st.sectors[id]
		if !ok {
			return ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (v *memoryView) GetSectorByCode(_ context.Context, code string) (*domain.Sector, error) {
	var out *domain.Sector
	err := v.read(func(st *memoryState) error {
		for _, s := range st.sectors {
			if s.Code == code {
				s := s
				out = &s
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func sectorConflict(st *memoryState, s *domain.Sector) error {
	for id, existing := range st.sectors {
		if id == s.ID {
			continue
		}
		if existing.Name == s.Name {
			return fmt.Errorf("%w: sectors_name_unique", ErrDuplicate)
		}
		if existing.Code == s.Code {
			return fmt.Errorf("%w: sectors_code_unique", ErrDuplicate)
		}
	}
	return nil
}

func (v *memoryView) CreateSector(_ context.Context, s *domain.Sector) (string, error) {
	var id string
	err := v.read(func(st *memoryState) error {
		if err := sectorConflict(st, s); err != nil {
			return err
		}
		row := *s
		row.ID = newID()
		if row.Color == "" {
			row.Color = domain.DefaultSectorColor
		}
		row.CreatedAt, row.UpdatedAt = v.now(), v.now()
		st.sectors[row.ID] = row
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) UpdateSector(_ context.Context, s *domain.Sector) error {
	return v.read(func(st *memoryState) error {
		cur, ok := st.sectors[s.ID]
		if !ok {
			return ErrNotFound
		}
		if err := sectorConflict(st, s); err != nil {
			return err
		}
		row := *s
		row.CreatedAt = cur.CreatedAt
		row.UpdatedAt = v.now()
		st.sectors[s.ID] = row
		return nil
	})
}

func (v *memoryView) DeleteSector(_ context.Context, id string) error {
	return v.read(func(st *memoryState) error {
		if _, ok := st.sectors[id]; !ok {
			return ErrNotFound
		}
		delete(st.sectors, id)
		gone := domain.SectorScope(id)
		for k, u := range st.units {
			if u.Scope == gone {
				u.Scope = domain.GlobalScope()
				st.units[k] = u
			}
		}
		for k, u := range st.users {
			if u.Scope == gone {
				u.Scope = domain.GlobalScope()
				st.users[k] = u
			}
		}
		for i := range st.notifications {
			if st.notifications[i].Scope == gone {
				st.notifications[i].Scope = domain.GlobalScope()
			}
		}
		return nil
	})
}

// ---- users ----

func (v *memoryView) ListUsers(context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	err := v.read(func(st *memoryState) error {
		for _, u := range st.users {
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (v *memoryView) GetUser(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := v.read(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (v *memoryView) GetUserByOpenID(_ context.Context, openID string) (*domain.User, error) {
	var out *domain.User
	err := v.read(func(st *memoryState) error {
		for _, u := range st.users {
			if u.OpenID == openID {
				u := u
				out = &u
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (v *memoryView) UpsertUser(_ context.Context, u *domain.User) (string, error) {
	var id string
	err := v.read(func(st *memoryState) error {
		now := v.now()
		for k, existing := range st.users {
			if existing.OpenID != u.OpenID {
				continue
			}
			if u.Name.Valid {
				existing.Name = u.Name
			}
			if u.Email.Valid {
				existing.Email = u.Email
			}
			existing.LastSignedIn.Time, existing.LastSignedIn.Valid = now, true
			existing.UpdatedAt = now
			st.users[k] = existing
			id = k
			return nil
		}
		row := *u
		row.ID = newID()
		if !row.Role.Valid() {
			row.Role = domain.RoleUser
		}
		row.LastSignedIn.Time, row.LastSignedIn.Valid = now, true
		row.CreatedAt, row.UpdatedAt = now, now
		st.users[row.ID] = row
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) AssignSector(_ context.Context, userID string, scope domain.Scope) error {
	return v.read(func(st *memoryState) error {
		u, ok := st.users[userID]
		if !ok {
			return ErrNotFound
		}
		u.Scope = scope
		u.UpdatedAt = v.now()
		st.users[userID] = u
		return nil
	})
}

// ---- import logs ----

func (v *memoryView) CreateImportLog(_ context.Context, l *domain.ImportLog) (string, error) {
	var id string
	err := v.read(func(st *memoryState) error {
		row := *l
		row.ID = newID()
		if row.Status == "" {
			row.Status = domain.ImportStatusProcessing
		}
		row.Errors = append(domain.ImportErrors(nil), l.Errors...)
		row.CreatedAt, row.UpdatedAt = v.now(), v.now()
		st.importLogs[row.ID] = row
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) UpdateImportLog(_ context.Context, l *domain.ImportLog) error {
	return v.read(func(st *memoryState) error {
		cur, ok := st.importLogs[l.ID]
		if !ok {
			return ErrNotFound
		}
		cur.SuccessRows = l.SuccessRows
		cur.FailedRows = l.FailedRows
		cur.Errors = append(domain.ImportErrors(nil), l.Errors...)
		cur.Status = l.Status
		cur.UpdatedAt = v.now()
		st.importLogs[l.ID] = cur
		return nil
	})
}

func (v *memoryView) GetImportLog(_ context.Context, id string) (*domain.ImportLog, error) {
	var out *domain.ImportLog
	err := v.read(func(st *memoryState) error {
		l, ok := st.importLogs[id]
		if !ok {
			return ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (v *memoryView) ListImportLogs(_ context.Context, limit int) ([]*domain.ImportLog, error) {
	out := []*domain.ImportLog{}
	err := v.read(func(st *memoryState) error {
		for _, l := range st.importLogs {
			l := l
			out = append(out, &l)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// ---- notifications ----

func (v *memoryView) CreateNotification(_ context.Context, n *domain.Notification) (string, error) {
	var id string
	err := v.read(func(st *memoryState) error {
		row := *n
		row.ID = newID()
		row.CreatedAt = v.now()
		st.notifications = append(st.notifications, row)
		n.CreatedAt = row.CreatedAt
		id = row.ID
		return nil
	})
	return id, err
}

func (v *memoryView) ListNotifications(_ context.Context, f NotificationFilters) ([]*domain.Notification, error) {
	out := []*domain.Notification{}
	err := v.read(func(st *memoryState) error {
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if f.UnreadOnly && n.IsRead {
				continue
			}
			if !f.Scope.Allows(n.Scope) {
				continue
			}
			out = append(out, &n)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (v *memoryView) MarkRead(_ context.Context, id string, scope domain.Scope) error {
	return v.read(func(st *memoryState) error {
		for i := range st.notifications {
			if st.notifications[i].ID == id && scope.Allows(st.notifications[i].Scope) {
				st.notifications[i].IsRead = true
				return nil
			}
		}
		return ErrNotFound
	})
}

func (v *memoryView) MarkAllRead(_ context.Context, scope domain.Scope) (int64, error) {
	var n int64
	err := v.read(func(st *memoryState) error {
		for i := range st.notifications {
			if !st.notifications[i].IsRead && scope.Allows(st.notifications[i].Scope) {
				st.notifications[i].IsRead = true
				n++
			}
		}
		return nil
	})
	return n, err
}
