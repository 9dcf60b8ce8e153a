package template

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heartmarshall/clinic-consent/internal/domain"
)

var _ templateRepo = &templateRepoMock{}

type templateRepoMock struct {
	CreateFunc       func(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error)
	UpdateFunc       func(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error)
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	ListFunc         func(ctx context.Context, f domain.TemplateFilter) ([]domain.ConsentTemplate, int, error)
	ListActiveFunc   func(ctx context.Context, category *domain.Category, now time.Time) ([]domain.ConsentTemplate, error)
	ListVersionsFunc func(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error)
	StatsFunc        func(ctx context.Context) (domain.TemplateStats, error)

	calls struct {
		Create []struct {
			Ctx context.Context
			T   domain.ConsentTemplate
		}
		Update []struct {
			Ctx context.Context
			T   domain.ConsentTemplate
		}
		GetByID []struct {
			Ctx context.Context
			ID  uuid.UUID
		}
		List []struct {
			Ctx context.Context
			F   domain.TemplateFilter
		}
		ListActive []struct {
			Ctx      context.Context
			Category *domain.Category
			Now      time.Time
		}
		ListVersions []struct {
			Ctx      context.Context
			Name     string
			Category domain.Category
		}
		Stats []struct{ Ctx context.Context }
	}
	lockCreate       sync.RWMutex
	lockUpdate       sync.RWMutex
	lockGetByID      sync.RWMutex
	lockList         sync.RWMutex
	lockListActive   sync.RWMutex
	lockListVersions sync.RWMutex
	lockStats        sync.RWMutex
}

func (mock *templateRepoMock) Create(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error) {
	if mock.CreateFunc == nil {
		panic("templateRepoMock.CreateFunc: method is nil but templateRepo.Create was just called")
	}
	callInfo := struct {
		Ctx context.Context
		T   domain.ConsentTemplate
	}{Ctx: ctx, T: t}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, t)
}

func (mock *templateRepoMock) CreateCalls() []struct {
	Ctx context.Context
	T   domain.ConsentTemplate
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *templateRepoMock) Update(ctx context.Context, t domain.ConsentTemplate) (domain.ConsentTemplate, error) {
	if mock.UpdateFunc == nil {
		panic("templateRepoMock.UpdateFunc: method is nil but templateRepo.Update was just called")
	}
	callInfo := struct {
		Ctx context.Context
		T   domain.ConsentTemplate
	}{Ctx: ctx, T: t}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, t)
}

func (mock *templateRepoMock) UpdateCalls() []struct {
	Ctx context.Context
	T   domain.ConsentTemplate
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *templateRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	if mock.GetByIDFunc == nil {
		panic("templateRepoMock.GetByIDFunc: method is nil but templateRepo.GetByID was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  uuid.UUID
	}{Ctx: ctx, ID: id}
	mock.lockGetByID.Lock()
	mock.calls.GetByID = append(mock.calls.GetByID, callInfo)
	mock.lockGetByID.Unlock()
	return mock.GetByIDFunc(ctx, id)
}

func (mock *templateRepoMock) GetByIDCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockGetByID.RLock()
	calls := mock.calls.GetByID
	mock.lockGetByID.RUnlock()
	return calls
}

func (mock *templateRepoMock) List(ctx context.Context, f domain.TemplateFilter) ([]domain.ConsentTemplate, int, error) {
	if mock.ListFunc == nil {
		panic("templateRepoMock.ListFunc: method is nil but templateRepo.List was just called")
	}
	callInfo := struct {
		Ctx context.Context
		F   domain.TemplateFilter
	}{Ctx: ctx, F: f}
	mock.lockList.Lock()
	mock.calls.List = append(mock.calls.List, callInfo)
	mock.lockList.Unlock()
	return mock.ListFunc(ctx, f)
}

func (mock *templateRepoMock) ListCalls() []struct {
	Ctx context.Context
	F   domain.TemplateFilter
} {
	mock.lockList.RLock()
	calls := mock.calls.List
	mock.lockList.RUnlock()
	return calls
}

func (mock *templateRepoMock) ListActive(ctx context.Context, category *domain.Category, now time.Time) ([]domain.ConsentTemplate, error) {
	if mock.ListActiveFunc == nil {
		panic("templateRepoMock.ListActiveFunc: method is nil but templateRepo.ListActive was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Category *domain.Category
		Now      time.Time
	}{Ctx: ctx, Category: category, Now: now}
	mock.lockListActive.Lock()
	mock.calls.ListActive = append(mock.calls.ListActive, callInfo)
	mock.lockListActive.Unlock()
	return mock.ListActiveFunc(ctx, category, now)
}

func (mock *templateRepoMock) ListActiveCalls() []struct {
	Ctx      context.Context
	Category *domain.Category
	Now      time.Time
} {
	mock.lockListActive.RLock()
	calls := mock.calls.ListActive
	mock.lockListActive.RUnlock()
	return calls
}

func (mock *templateRepoMock) ListVersions(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error) {
	if mock.ListVersionsFunc == nil {
		panic("templateRepoMock.ListVersionsFunc: method is nil but templateRepo.ListVersions was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Name     string
		Category domain.Category
	}{Ctx: ctx, Name: name, Category: category}
	mock.lockListVersions.Lock()
	mock.calls.ListVersions = append(mock.calls.ListVersions, callInfo)
	mock.lockListVersions.Unlock()
	return mock.ListVersionsFunc(ctx, name, category)
}

func (mock *templateRepoMock) ListVersionsCalls() []struct {
	Ctx      context.Context
	Name     string
	Category domain.Category
} {
	mock.lockListVersions.RLock()
	calls := mock.calls.ListVersions
	mock.lockListVersions.RUnlock()
	return calls
}

func (mock *templateRepoMock) Stats(ctx context.Context) (domain.TemplateStats, error) {
	if mock.StatsFunc == nil {
		panic("templateRepoMock.StatsFunc: method is nil but templateRepo.Stats was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockStats.Lock()
	mock.calls.Stats = append(mock.calls.Stats, callInfo)
	mock.lockStats.Unlock()
	return mock.StatsFunc(ctx)
}

func (mock *templateRepoMock) StatsCalls() []struct{ Ctx context.Context } {
	mock.lockStats.RLock()
	calls := mock.calls.Stats
	mock.lockStats.RUnlock()
	return calls
}
