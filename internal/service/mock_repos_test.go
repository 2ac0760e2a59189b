package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"timeclock/internal/model"
)

// ── Mock PunchRepository ──

type mockPunchRepo struct {
	mu      sync.Mutex
	punches map[string]*model.Punch

	// 注入故障
	createErr error
	// 记录 CreateBatch 调用次数
	batchCalls int
}

func newMockPunchRepo() *mockPunchRepo {
	return &mockPunchRepo{punches: make(map[string]*model.Punch)}
}

func (m *mockPunchRepo) put(p *model.Punch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.punches[p.PunchID] = &cp
}

func (m *mockPunchRepo) GetByID(_ context.Context, id string) (*model.Punch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.punches[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPunchRepo) GetOpenByAuthID(_ context.Context, authID string) (*model.Punch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.punches {
		if p.OwnedBy(authID) && p.IsOpen() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPunchRepo) GetLastByAuthID(_ context.Context, authID string) (*model.Punch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Punch
	for _, p := range m.punches {
		if !p.OwnedBy(authID) {
			continue
		}
		if best == nil || later(p, best) {
			best = p
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

// later 与 SQL 排序一致：PunchIn 降序，其次未结束优先，再次 PunchOut 降序
func later(a, b *model.Punch) bool {
	if !a.PunchIn.Equal(b.PunchIn) {
		return a.PunchIn.After(b.PunchIn)
	}
	if a.IsOpen() != b.IsOpen() {
		return a.IsOpen()
	}
	if a.IsOpen() {
		return false
	}
	return a.PunchOut.After(*b.PunchOut)
}

func (m *mockPunchRepo) ListClosedInRange(_ context.Context, authID string, from, until time.Time) ([]model.Punch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Punch, 0)
	for _, p := range m.punches {
		if !p.OwnedBy(authID) || p.IsOpen() {
			continue
		}
		if !p.PunchIn.Before(from) && p.PunchOut.Before(until) {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PunchIn.Before(result[j].PunchIn) })
	return result, nil
}

func (m *mockPunchRepo) CloseOpenAndCreate(_ context.Context, authID string, closedAt time.Time, next *model.Punch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if next != nil && m.createErr != nil {
		return 0, m.createErr
	}

	var closed int64
	for _, p := range m.punches {
		if p.OwnedBy(authID) && p.IsOpen() {
			t := closedAt
			p.PunchOut = &t
			p.UpdatedAt = closedAt
			closed++
		}
	}
	if next != nil {
		for _, p := range m.punches {
			if p.OwnedBy(authID) && p.IsOpen() {
				return 0, errors.New("violates unique index uq_punches_open_per_owner")
			}
		}
		cp := *next
		m.punches[next.PunchID] = &cp
	}
	return closed, nil
}

func (m *mockPunchRepo) Update(_ context.Context, punch *model.Punch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.punches[punch.PunchID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *punch
	m.punches[punch.PunchID] = &cp
	return nil
}

func (m *mockPunchRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.punches[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.punches, id)
	return nil
}

func (m *mockPunchRepo) CreateBatch(_ context.Context, punches []model.Punch, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.createErr != nil {
		return m.createErr
	}
	for i := range punches {
		cp := punches[i]
		m.punches[cp.PunchID] = &cp
	}
	return nil
}

func (m *mockPunchRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.punches)
}

func (m *mockPunchRepo) openCount(authID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.punches {
		if p.OwnedBy(authID) && p.IsOpen() {
			n++
		}
	}
	return n
}

// ── 测试数据 ──

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func closedPunch(id, owner string, in, out time.Time, ht model.HourType) *model.Punch {
	return &model.Punch{
		PunchID:  id,
		PunchIn:  in,
		PunchOut: timePtr(out),
		HourType: ht,
		AuthID:   strPtr(owner),
	}
}
