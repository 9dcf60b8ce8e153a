package consent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heartmarshall/clinic-consent/internal/domain"
)

var _ recordRepo = &recordRepoMock{}

type recordRepoMock struct {
	CreateFunc            func(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error)
	UpdateFunc            func(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error)
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error)
	ListFunc              func(ctx context.Context, f domain.RecordFilter) ([]domain.ConsentRecord, int, error)
	FindActiveByTokenFunc func(ctx context.Context, token string, now time.Time, maxAttempts int) (domain.ConsentRecord, error)
	ExpireDueFunc         func(ctx context.Context, now time.Time) ([]domain.ExpiredRecord, error)
	CountByStatusFunc     func(ctx context.Context) (map[domain.RecordStatus]int, error)
	CountByMonthFunc      func(ctx context.Context, since time.Time) ([]domain.MonthStats, error)

	calls struct {
		Create []struct {
			Ctx context.Context
			Rec domain.ConsentRecord
		}
		Update []struct {
			Ctx context.Context
			Rec domain.ConsentRecord
		}
		GetByID []struct {
			Ctx context.Context
			ID  uuid.UUID
		}
		List []struct {
			Ctx context.Context
			F   domain.RecordFilter
		}
		FindActiveByToken []struct {
			Ctx         context.Context
			Token       string
			Now         time.Time
			MaxAttempts int
		}
		ExpireDue []struct {
			Ctx context.Context
			Now time.Time
		}
		CountByStatus []struct{ Ctx context.Context }
		CountByMonth []struct {
			Ctx   context.Context
			Since time.Time
		}
	}
	lockCreate            sync.RWMutex
	lockUpdate            sync.RWMutex
	lockGetByID           sync.RWMutex
	lockList              sync.RWMutex
	lockFindActiveByToken sync.RWMutex
	lockExpireDue         sync.RWMutex
	lockCountByStatus     sync.RWMutex
	lockCountByMonth      sync.RWMutex
}

func (mock *recordRepoMock) Create(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error) {
	if mock.CreateFunc == nil {
		panic("recordRepoMock.CreateFunc: method is nil but recordRepo.Create was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Rec domain.ConsentRecord
	}{Ctx: ctx, Rec: rec}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, rec)
}

func (mock *recordRepoMock) CreateCalls() []struct {
	Ctx context.Context
	Rec domain.ConsentRecord
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *recordRepoMock) Update(ctx context.Context, rec domain.ConsentRecord) (domain.ConsentRecord, error) {
	if mock.UpdateFunc == nil {
		panic("recordRepoMock.UpdateFunc: method is nil but recordRepo.Update was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Rec domain.ConsentRecord
	}{Ctx: ctx, Rec: rec}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, rec)
}

func (mock *recordRepoMock) UpdateCalls() []struct {
	Ctx context.Context
	Rec domain.ConsentRecord
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *recordRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentRecord, error) {
	if mock.GetByIDFunc == nil {
		panic("recordRepoMock.GetByIDFunc: method is nil but recordRepo.GetByID was just called")
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

func (mock *recordRepoMock) GetByIDCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockGetByID.RLock()
	calls := mock.calls.GetByID
	mock.lockGetByID.RUnlock()
	return calls
}

func (mock *recordRepoMock) List(ctx context.Context, f domain.RecordFilter) ([]domain.ConsentRecord, int, error) {
	if mock.ListFunc == nil {
		panic("recordRepoMock.ListFunc: method is nil but recordRepo.List was just called")
	}
	callInfo := struct {
		Ctx context.Context
		F   domain.RecordFilter
	}{Ctx: ctx, F: f}
	mock.lockList.Lock()
	mock.calls.List = append(mock.calls.List, callInfo)
	mock.lockList.Unlock()
	return mock.ListFunc(ctx, f)
}

func (mock *recordRepoMock) ListCalls() []struct {
	Ctx context.Context
	F   domain.RecordFilter
} {
	mock.lockList.RLock()
	calls := mock.calls.List
	mock.lockList.RUnlock()
	return calls
}

func (mock *recordRepoMock) FindActiveByToken(ctx context.Context, token string, now time.Time, maxAttempts int) (domain.ConsentRecord, error) {
	if mock.FindActiveByTokenFunc == nil {
		panic("recordRepoMock.FindActiveByTokenFunc: method is nil but recordRepo.FindActiveByToken was just called")
	}
	callInfo := struct {
		Ctx         context.Context
		Token       string
		Now         time.Time
		MaxAttempts int
	}{Ctx: ctx, Token: token, Now: now, MaxAttempts: maxAttempts}
	mock.lockFindActiveByToken.Lock()
	mock.calls.FindActiveByToken = append(mock.calls.FindActiveByToken, callInfo)
	mock.lockFindActiveByToken.Unlock()
	return mock.FindActiveByTokenFunc(ctx, token, now, maxAttempts)
}

func (mock *recordRepoMock) FindActiveByTokenCalls() []struct {
	Ctx         context.Context
	Token       string
	Now         time.Time
	MaxAttempts int
} {
	mock.lockFindActiveByToken.RLock()
	calls := mock.calls.FindActiveByToken
	mock.lockFindActiveByToken.RUnlock()
	return calls
}

func (mock *recordRepoMock) ExpireDue(ctx context.Context, now time.Time) ([]domain.ExpiredRecord, error) {
	if mock.ExpireDueFunc == nil {
		panic("recordRepoMock.ExpireDueFunc: method is nil but recordRepo.ExpireDue was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Now time.Time
	}{Ctx: ctx, Now: now}
	mock.lockExpireDue.Lock()
	mock.calls.ExpireDue = append(mock.calls.ExpireDue, callInfo)
	mock.lockExpireDue.Unlock()
	return mock.ExpireDueFunc(ctx, now)
}

func (mock *recordRepoMock) ExpireDueCalls() []struct {
	Ctx context.Context
	Now time.Time
} {
	mock.lockExpireDue.RLock()
	calls := mock.calls.ExpireDue
	mock.lockExpireDue.RUnlock()
	return calls
}

func (mock *recordRepoMock) CountByStatus(ctx context.Context) (map[domain.RecordStatus]int, error) {
	if mock.CountByStatusFunc == nil {
		panic("recordRepoMock.CountByStatusFunc: method is nil but recordRepo.CountByStatus was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockCountByStatus.Lock()
	mock.calls.CountByStatus = append(mock.calls.CountByStatus, callInfo)
	mock.lockCountByStatus.Unlock()
	return mock.CountByStatusFunc(ctx)
}

func (mock *recordRepoMock) CountByStatusCalls() []struct{ Ctx context.Context } {
	mock.lockCountByStatus.RLock()
	calls := mock.calls.CountByStatus
	mock.lockCountByStatus.RUnlock()
	return calls
}

func (mock *recordRepoMock) CountByMonth(ctx context.Context, since time.Time) ([]domain.MonthStats, error) {
	if mock.CountByMonthFunc == nil {
		panic("recordRepoMock.CountByMonthFunc: method is nil but recordRepo.CountByMonth was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Since time.Time
	}{Ctx: ctx, Since: since}
	mock.lockCountByMonth.Lock()
	mock.calls.CountByMonth = append(mock.calls.CountByMonth, callInfo)
	mock.lockCountByMonth.Unlock()
	return mock.CountByMonthFunc(ctx, since)
}

func (mock *recordRepoMock) CountByMonthCalls() []struct {
	Ctx   context.Context
	Since time.Time
} {
	mock.lockCountByMonth.RLock()
	calls := mock.calls.CountByMonth
	mock.lockCountByMonth.RUnlock()
	return calls
}
