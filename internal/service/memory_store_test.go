package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-api/internal/models"
)

// memoryDB is an in-memory stand-in for the database. Transactions are
// serialized and restored from a snapshot when fn fails, which mirrors the
// row locking and rollback the services rely on.
type memoryDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	lots         map[string]models.VaccineLot
	appointments map[string]models.Appointment
	children     map[string]models.Child
	records      map[string]models.VaccinationRecord
	links        map[string]models.LinkRequest
	tutors       map[string]models.Tutor
	users        map[string]models.User

	insertErr error
	txCount   int
}

type memorySnapshot struct {
	lots         map[string]models.VaccineLot
	appointments map[string]models.Appointment
	children     map[string]models.Child
	records      map[string]models.VaccinationRecord
	links        map[string]models.LinkRequest
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		lots:         map[string]models.VaccineLot{},
		appointments: map[string]models.Appointment{},
		children:     map[string]models.Child{},
		records:      map[string]models.VaccinationRecord{},
		links:        map[string]models.LinkRequest{},
		tutors:       map[string]models.Tutor{},
		users:        map[string]models.User{},
	}
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (db *memoryDB) snapshot() memorySnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memorySnapshot{
		lots:         copyMap(db.lots),
		appointments: copyMap(db.appointments),
		children:     copyMap(db.children),
		records:      copyMap(db.records),
		links:        copyMap(db.links),
	}
}

func (db *memoryDB) restore(s memorySnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.lots = s.lots
	db.appointments = s.appointments
	db.children = s.children
	db.records = s.records
	db.links = s.links
}

func (db *memoryDB) WithinTx(ctx context.Context, label string, fn func(exec sqlx.ExtContext) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	db.txCount++
	snap := db.snapshot()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(nil); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memoryDB) lot(id string) models.VaccineLot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lots[id]
}

func (db *memoryDB) appointment(id string) models.Appointment {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.appointments[id]
}

func (db *memoryDB) child(id string) (models.Child, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.children[id]
	return c, ok
}

func (db *memoryDB) link(id string) models.LinkRequest {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.links[id]
}

func (db *memoryDB) recordCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.records)
}

type memoryLots struct{ db *memoryDB }

func (m memoryLots) ListAvailable(ctx context.Context, vaccineID, centerID string, now time.Time) ([]models.VaccineLot, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.VaccineLot
	for _, lot := range m.db.lots {
		if lot.VaccineID == vaccineID && lot.CenterID == centerID && lot.Eligible(now) {
			out = append(out, lot)
		}
	}
	// map iteration order is random; the service sorts
	return out, nil
}

func (m memoryLots) LockByID(ctx context.Context, exec sqlx.ExtContext, lotID string) (*models.VaccineLot, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	lot, ok := m.db.lots[lotID]
	if !ok {
		return nil, nil
	}
	return &lot, nil
}

func (m memoryLots) Decrement(ctx context.Context, exec sqlx.ExtContext, lotID string, quantity int) (int, bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	lot, ok := m.db.lots[lotID]
	if !ok || lot.QuantityAvailable < quantity {
		return 0, false, nil
	}
	lot.QuantityAvailable -= quantity
	m.db.lots[lotID] = lot
	return lot.QuantityAvailable, true, nil
}

type memoryAppointments struct{ db *memoryDB }

func (m memoryAppointments) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Appointment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	appt, ok := m.db.appointments[id]
	if !ok {
		return nil, nil
	}
	return &appt, nil
}

func (m memoryAppointments) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.AppointmentStatus, now time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	appt, ok := m.db.appointments[id]
	if !ok || appt.Status != from {
		return errors.New("appointment status changed concurrently")
	}
	appt.Status = to
	appt.UpdatedAt = now
	m.db.appointments[id] = appt
	return nil
}

type memoryChildren struct{ db *memoryDB }

func (m memoryChildren) Create(ctx context.Context, child *models.Child) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.children[child.ID] = *child
	return nil
}

func (m memoryChildren) FindByID(ctx context.Context, id string) (*models.Child, error) {
	return m.LockByID(ctx, nil, id)
}

func (m memoryChildren) FindByIDTx(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error) {
	return m.LockByID(ctx, exec, id)
}

func (m memoryChildren) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error) {
	c, ok := m.db.child(id)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m memoryChildren) FindByActivationCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Child, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, c := range m.db.children {
		if c.ActivationCode == code {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m memoryChildren) SetTutor(ctx context.Context, exec sqlx.ExtContext, childID, tutorID string, now time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.children[childID]
	if !ok {
		return errors.New("child not found")
	}
	c.TutorID = &tutorID
	c.UpdatedAt = now
	m.db.children[childID] = c
	return nil
}

func (m memoryChildren) Delete(ctx context.Context, exec sqlx.ExtContext, childID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.children, childID)
	for id, l := range m.db.links {
		if l.ChildID == childID {
			delete(m.db.links, id)
		}
	}
	return nil
}

func (m memoryChildren) ListByTutor(ctx context.Context, tutorID string) ([]models.ChildDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var items []models.ChildDetail
	for _, c := range m.db.children {
		if c.LinkedTo(tutorID) {
			items = append(items, models.ChildDetail{Child: c})
		}
	}
	return items, nil
}

type memoryRecords struct{ db *memoryDB }

func (m memoryRecords) Insert(ctx context.Context, exec sqlx.ExtContext, record *models.VaccinationRecord) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.insertErr != nil {
		return m.db.insertErr
	}
	for _, r := range m.db.records {
		if r.AppointmentID == record.AppointmentID {
			return errors.New("duplicate appointment record")
		}
	}
	m.db.records[record.ID] = *record
	return nil
}

func (m memoryRecords) CountByChild(ctx context.Context, exec sqlx.ExtContext, childID string) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	count := 0
	for _, r := range m.db.records {
		if r.ChildID == childID {
			count++
		}
	}
	return count, nil
}

func (m memoryRecords) ListByChild(ctx context.Context, childID string) ([]models.VaccinationHistoryEntry, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.VaccinationHistoryEntry
	for _, r := range m.db.records {
		if r.ChildID == childID {
			out = append(out, models.VaccinationHistoryEntry{VaccinationRecord: r, LotNumber: m.db.lots[r.LotID].LotNumber})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdministeredAt.Before(out[j].AdministeredAt) })
	return out, nil
}

func (m memoryRecords) ListByTutorUser(ctx context.Context, userID string) ([]models.VaccinationHistoryEntry, error) {
	m.db.mu.Lock()
	tutor, ok := m.db.tutors[userID]
	m.db.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var out []models.VaccinationHistoryEntry
	m.db.mu.Lock()
	childIDs := []string{}
	for _, c := range m.db.children {
		if c.LinkedTo(tutor.ID) {
			childIDs = append(childIDs, c.ID)
		}
	}
	m.db.mu.Unlock()
	for _, id := range childIDs {
		entries, _ := m.ListByChild(ctx, id)
		out = append(out, entries...)
	}
	return out, nil
}

func (m memoryRecords) AdministeredByChild(ctx context.Context, childID string) ([]models.AdministeredDose, error) {
	entries, _ := m.ListByChild(ctx, childID)
	out := make([]models.AdministeredDose, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.AdministeredDose{VaccineID: e.VaccineID, DoseNumber: e.DoseNumber, AdministeredAt: e.AdministeredAt})
	}
	return out, nil
}

type memoryLinks struct{ db *memoryDB }

func (m memoryLinks) LockPair(ctx context.Context, exec sqlx.ExtContext, tutorID, childID string) error {
	return nil
}

func (m memoryLinks) HasPending(ctx context.Context, exec sqlx.ExtContext, tutorID, childID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, l := range m.db.links {
		if l.TutorID == tutorID && l.ChildID == childID && l.Status == models.LinkStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m memoryLinks) Create(ctx context.Context, exec sqlx.ExtContext, req *models.LinkRequest) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.links[req.ID] = *req
	return nil
}

func (m memoryLinks) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.LinkRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	l, ok := m.db.links[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m memoryLinks) Resolve(ctx context.Context, exec sqlx.ExtContext, id string, status models.LinkStatus, resolvedBy string, now time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	l, ok := m.db.links[id]
	if !ok || l.Status != models.LinkStatusPending {
		return errors.New("link request is not pending")
	}
	l.Status = status
	l.ResolvedAt = &now
	l.ResolvedBy = &resolvedBy
	m.db.links[id] = l
	return nil
}

func (m memoryLinks) ListPendingForTutor(ctx context.Context, tutorID string) ([]models.LinkRequestDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.LinkRequestDetail
	for _, l := range m.db.links {
		c := m.db.children[l.ChildID]
		if l.Status == models.LinkStatusPending && c.LinkedTo(tutorID) {
			out = append(out, models.LinkRequestDetail{LinkRequest: l, ChildName: c.FullName()})
		}
	}
	return out, nil
}

func (m memoryLinks) ListPending(ctx context.Context) ([]models.LinkRequestDetail, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.LinkRequestDetail
	for _, l := range m.db.links {
		if l.Status == models.LinkStatusPending {
			out = append(out, models.LinkRequestDetail{LinkRequest: l})
		}
	}
	return out, nil
}

type memoryUsers struct{ db *memoryDB }

func (m memoryUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m memoryUsers) FindTutorByUserID(ctx context.Context, userID string) (*models.Tutor, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.tutors[userID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}
