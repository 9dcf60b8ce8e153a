package rest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/internal/service/template"
)

var _ templateService = &templateServiceMock{}

type templateServiceMock struct {
	CreateFunc           func(ctx context.Context, input template.CreateInput) (domain.ConsentTemplate, error)
	CreateNewVersionFunc func(ctx context.Context, input template.NewVersionInput) (domain.ConsentTemplate, error)
	UpdateFunc           func(ctx context.Context, input template.UpdateInput) (domain.ConsentTemplate, error)
	DeactivateFunc       func(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	ApproveFunc          func(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	GetFunc              func(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)
	ListFunc             func(ctx context.Context, f domain.TemplateFilter) (template.ListResult, error)
	ListActiveFunc       func(ctx context.Context, category *domain.Category) ([]domain.ConsentTemplate, error)
	ListVersionsFunc     func(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error)
	StatsFunc            func(ctx context.Context) (domain.TemplateStats, error)
	HistoryFunc          func(ctx context.Context, id uuid.UUID, limit int) ([]domain.AuditRecord, error)

	calls struct {
		Create []struct {
			Ctx   context.Context
			Input template.CreateInput
		}
		CreateNewVersion []struct {
			Ctx   context.Context
			Input template.NewVersionInput
		}
		Update []struct {
			Ctx   context.Context
			Input template.UpdateInput
		}
		Deactivate []struct {
			Ctx context.Context
			ID  uuid.UUID
		}
		Approve []struct {
			Ctx context.Context
			ID  uuid.UUID
		}
		Get []struct {
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
		}
		ListVersions []struct {
			Ctx      context.Context
			Name     string
			Category domain.Category
		}
		Stats []struct{ Ctx context.Context }
		History []struct {
			Ctx   context.Context
			ID    uuid.UUID
			Limit int
		}
	}
	lockCreate           sync.RWMutex
	lockCreateNewVersion sync.RWMutex
	lockUpdate           sync.RWMutex
	lockDeactivate       sync.RWMutex
	lockApprove          sync.RWMutex
	lockGet              sync.RWMutex
	lockList             sync.RWMutex
	lockListActive       sync.RWMutex
	lockListVersions     sync.RWMutex
	lockStats            sync.RWMutex
	lockHistory          sync.RWMutex
}

func (mock *templateServiceMock) Create(ctx context.Context, input template.CreateInput) (domain.ConsentTemplate, error) {
	if mock.CreateFunc == nil {
		panic("templateServiceMock.CreateFunc: method is nil but templateService.Create was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input template.CreateInput
	}{Ctx: ctx, Input: input}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, input)
}

func (mock *templateServiceMock) CreateCalls() []struct {
	Ctx   context.Context
	Input template.CreateInput
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *templateServiceMock) CreateNewVersion(ctx context.Context, input template.NewVersionInput) (domain.ConsentTemplate, error) {
	if mock.CreateNewVersionFunc == nil {
		panic("templateServiceMock.CreateNewVersionFunc: method is nil but templateService.CreateNewVersion was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input template.NewVersionInput
	}{Ctx: ctx, Input: input}
	mock.lockCreateNewVersion.Lock()
	mock.calls.CreateNewVersion = append(mock.calls.CreateNewVersion, callInfo)
	mock.lockCreateNewVersion.Unlock()
	return mock.CreateNewVersionFunc(ctx, input)
}

func (mock *templateServiceMock) CreateNewVersionCalls() []struct {
	Ctx   context.Context
	Input template.NewVersionInput
} {
	mock.lockCreateNewVersion.RLock()
	calls := mock.calls.CreateNewVersion
	mock.lockCreateNewVersion.RUnlock()
	return calls
}

func (mock *templateServiceMock) Update(ctx context.Context, input template.UpdateInput) (domain.ConsentTemplate, error) {
	if mock.UpdateFunc == nil {
		panic("templateServiceMock.UpdateFunc: method is nil but templateService.Update was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input template.UpdateInput
	}{Ctx: ctx, Input: input}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, input)
}

func (mock *templateServiceMock) UpdateCalls() []struct {
	Ctx   context.Context
	Input template.UpdateInput
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *templateServiceMock) Deactivate(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	if mock.DeactivateFunc == nil {
		panic("templateServiceMock.DeactivateFunc: method is nil but templateService.Deactivate was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  uuid.UUID
	}{Ctx: ctx, ID: id}
	mock.lockDeactivate.Lock()
	mock.calls.Deactivate = append(mock.calls.Deactivate, callInfo)
	mock.lockDeactivate.Unlock()
	return mock.DeactivateFunc(ctx, id)
}

func (mock *templateServiceMock) DeactivateCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockDeactivate.RLock()
	calls := mock.calls.Deactivate
	mock.lockDeactivate.RUnlock()
	return calls
}

func (mock *templateServiceMock) Approve(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	if mock.ApproveFunc == nil {
		panic("templateServiceMock.ApproveFunc: method is nil but templateService.Approve was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  uuid.UUID
	}{Ctx: ctx, ID: id}
	mock.lockApprove.Lock()
	mock.calls.Approve = append(mock.calls.Approve, callInfo)
	mock.lockApprove.Unlock()
	return mock.ApproveFunc(ctx, id)
}

func (mock *templateServiceMock) ApproveCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockApprove.RLock()
	calls := mock.calls.Approve
	mock.lockApprove.RUnlock()
	return calls
}

func (mock *templateServiceMock) Get(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	if mock.GetFunc == nil {
		panic("templateServiceMock.GetFunc: method is nil but templateService.Get was just called")
	}
	callInfo := struct {
		Ctx context.Context
		ID  uuid.UUID
	}{Ctx: ctx, ID: id}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, id)
}

func (mock *templateServiceMock) GetCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *templateServiceMock) List(ctx context.Context, f domain.TemplateFilter) (template.ListResult, error) {
	if mock.ListFunc == nil {
		panic("templateServiceMock.ListFunc: method is nil but templateService.List was just called")
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

func (mock *templateServiceMock) ListCalls() []struct {
	Ctx context.Context
	F   domain.TemplateFilter
} {
	mock.lockList.RLock()
	calls := mock.calls.List
	mock.lockList.RUnlock()
	return calls
}

func (mock *templateServiceMock) ListActive(ctx context.Context, category *domain.Category) ([]domain.ConsentTemplate, error) {
	if mock.ListActiveFunc == nil {
		panic("templateServiceMock.ListActiveFunc: method is nil but templateService.ListActive was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Category *domain.Category
	}{Ctx: ctx, Category: category}
	mock.lockListActive.Lock()
	mock.calls.ListActive = append(mock.calls.ListActive, callInfo)
	mock.lockListActive.Unlock()
	return mock.ListActiveFunc(ctx, category)
}

func (mock *templateServiceMock) ListActiveCalls() []struct {
	Ctx      context.Context
	Category *domain.Category
} {
	mock.lockListActive.RLock()
	calls := mock.calls.ListActive
	mock.lockListActive.RUnlock()
	return calls
}

func (mock *templateServiceMock) ListVersions(ctx context.Context, name string, category domain.Category) ([]domain.ConsentTemplate, error) {
	if mock.ListVersionsFunc == nil {
		panic("templateServiceMock.ListVersionsFunc: method is nil but templateService.ListVersions was just called")
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

func (mock *templateServiceMock) ListVersionsCalls() []struct {
	Ctx      context.Context
	Name     string
	Category domain.Category
} {
	mock.lockListVersions.RLock()
	calls := mock.calls.ListVersions
	mock.lockListVersions.RUnlock()
	return calls
}

func (mock *templateServiceMock) Stats(ctx context.Context) (domain.TemplateStats, error) {
	if mock.StatsFunc == nil {
		panic("templateServiceMock.StatsFunc: method is nil but templateService.Stats was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockStats.Lock()
	mock.calls.Stats = append(mock.calls.Stats, callInfo)
	mock.lockStats.Unlock()
	return mock.StatsFunc(ctx)
}

func (mock *templateServiceMock) StatsCalls() []struct{ Ctx context.Context } {
	mock.lockStats.RLock()
	calls := mock.calls.Stats
	mock.lockStats.RUnlock()
	return calls
}

func (mock *templateServiceMock) History(ctx context.Context, id uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	if mock.HistoryFunc == nil {
		panic("templateServiceMock.HistoryFunc: method is nil but templateService.History was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		ID    uuid.UUID
		Limit int
	}{Ctx: ctx, ID: id, Limit: limit}
	mock.lockHistory.Lock()
	mock.calls.History = append(mock.calls.History, callInfo)
	mock.lockHistory.Unlock()
	return mock.HistoryFunc(ctx, id, limit)
}

func (mock *templateServiceMock) HistoryCalls() []struct {
	Ctx   context.Context
	ID    uuid.UUID
	Limit int
} {
	mock.lockHistory.RLock()
	calls := mock.calls.History
	mock.lockHistory.RUnlock()
	return calls
}
