package rest

import (
	"context"
	"sync"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

var _ publicService = &publicServiceMock{}

type publicServiceMock struct {
	OpenByTokenFunc   func(ctx context.Context, token string) (domain.ConsentRecord, error)
	SignByTokenFunc   func(ctx context.Context, token string, data domain.SignatureData) (domain.ConsentRecord, error)
	RejectByTokenFunc func(ctx context.Context, token string, reason string) (domain.ConsentRecord, error)

	calls struct {
		OpenByToken []struct {
			Ctx   context.Context
			Token string
		}
		SignByToken []struct {
			Ctx   context.Context
			Token string
			Data  domain.SignatureData
		}
		RejectByToken []struct {
			Ctx    context.Context
			Token  string
			Reason string
		}
	}
	lockOpenByToken   sync.RWMutex
	lockSignByToken   sync.RWMutex
	lockRejectByToken sync.RWMutex
}

func (mock *publicServiceMock) OpenByToken(ctx context.Context, token string) (domain.ConsentRecord, error) {
	if mock.OpenByTokenFunc == nil {
		panic("publicServiceMock.OpenByTokenFunc: method is nil but publicService.OpenByToken was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Token string
	}{Ctx: ctx, Token: token}
	mock.lockOpenByToken.Lock()
	mock.calls.OpenByToken = append(mock.calls.OpenByToken, callInfo)
	mock.lockOpenByToken.Unlock()
	return mock.OpenByTokenFunc(ctx, token)
}

func (mock *publicServiceMock) OpenByTokenCalls() []struct {
	Ctx   context.Context
	Token string
} {
	mock.lockOpenByToken.RLock()
	calls := mock.calls.OpenByToken
	mock.lockOpenByToken.RUnlock()
	return calls
}

func (mock *publicServiceMock) SignByToken(ctx context.Context, token string, data domain.SignatureData) (domain.ConsentRecord, error) {
	if mock.SignByTokenFunc == nil {
		panic("publicServiceMock.SignByTokenFunc: method is nil but publicService.SignByToken was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Token string
		Data  domain.SignatureData
	}{Ctx: ctx, Token: token, Data: data}
	mock.lockSignByToken.Lock()
	mock.calls.SignByToken = append(mock.calls.SignByToken, callInfo)
	mock.lockSignByToken.Unlock()
	return mock.SignByTokenFunc(ctx, token, data)
}

func (mock *publicServiceMock) SignByTokenCalls() []struct {
	Ctx   context.Context
	Token string
	Data  domain.SignatureData
} {
	mock.lockSignByToken.RLock()
	calls := mock.calls.SignByToken
	mock.lockSignByToken.RUnlock()
	return calls
}

func (mock *publicServiceMock) RejectByToken(ctx context.Context, token string, reason string) (domain.ConsentRecord, error) {
	if mock.RejectByTokenFunc == nil {
		panic("publicServiceMock.RejectByTokenFunc: method is nil but publicService.RejectByToken was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Token  string
		Reason string
	}{Ctx: ctx, Token: token, Reason: reason}
	mock.lockRejectByToken.Lock()
	mock.calls.RejectByToken = append(mock.calls.RejectByToken, callInfo)
	mock.lockRejectByToken.Unlock()
	return mock.RejectByTokenFunc(ctx, token, reason)
}

func (mock *publicServiceMock) RejectByTokenCalls() []struct {
	Ctx    context.Context
	Token  string
	Reason string
} {
	mock.lockRejectByToken.RLock()
	calls := mock.calls.RejectByToken
	mock.lockRejectByToken.RUnlock()
	return calls
}
