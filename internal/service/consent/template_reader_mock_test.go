package consent

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/heartmarshall/clinic-consent/internal/domain"
)

var _ templateReader = &templateReaderMock{}

type templateReaderMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error)

	calls struct {
		GetByID []struct {
			Ctx context.Context
			ID  uuid.UUID
		}
	}
	lockGetByID sync.RWMutex
}

func (mock *templateReaderMock) GetByID(ctx context.Context, id uuid.UUID) (domain.ConsentTemplate, error) {
	if mock.GetByIDFunc == nil {
		panic("templateReaderMock.GetByIDFunc: method is nil but templateReader.GetByID was just called")
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

func (mock *templateReaderMock) GetByIDCalls() []struct {
	Ctx context.Context
	ID  uuid.UUID
} {
	mock.lockGetByID.RLock()
	calls := mock.calls.GetByID
	mock.lockGetByID.RUnlock()
	return calls
}
