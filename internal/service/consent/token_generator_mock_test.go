package consent

import (
	"sync"
)

var _ tokenGenerator = &tokenGeneratorMock{}

type tokenGeneratorMock struct {
	GenerateFunc func() (string, error)

	calls struct {
		Generate []struct{}
	}
	lockGenerate sync.RWMutex
}

func (mock *tokenGeneratorMock) Generate() (string, error) {
	if mock.GenerateFunc == nil {
		panic("tokenGeneratorMock.GenerateFunc: method is nil but tokenGenerator.Generate was just called")
	}
	mock.lockGenerate.Lock()
	mock.calls.Generate = append(mock.calls.Generate, struct{}{})
	mock.lockGenerate.Unlock()
	return mock.GenerateFunc()
}

func (mock *tokenGeneratorMock) GenerateCalls() []struct{} {
	mock.lockGenerate.RLock()
	calls := mock.calls.Generate
	mock.lockGenerate.RUnlock()
	return calls
}
