package consent

import (
	"sync"

	"github.com/heartmarshall/clinic-consent/internal/domain"
)

var _ metricsRecorder = &metricsRecorderMock{}

type metricsRecorderMock struct {
	TransitionFunc func(action string, to domain.RecordStatus)
	ExpiredFunc    func(from domain.RecordStatus, n int)

	calls struct {
		Transition []struct {
			Action string
			To     domain.RecordStatus
		}
		Expired []struct {
			From domain.RecordStatus
			N    int
		}
	}
	lockTransition sync.RWMutex
	lockExpired    sync.RWMutex
}

func (mock *metricsRecorderMock) Transition(action string, to domain.RecordStatus) {
	if mock.TransitionFunc == nil {
		panic("metricsRecorderMock.TransitionFunc: method is nil but metricsRecorder.Transition was just called")
	}
	callInfo := struct {
		Action string
		To     domain.RecordStatus
	}{Action: action, To: to}
	mock.lockTransition.Lock()
	mock.calls.Transition = append(mock.calls.Transition, callInfo)
	mock.lockTransition.Unlock()
	mock.TransitionFunc(action, to)
}

func (mock *metricsRecorderMock) TransitionCalls() []struct {
	Action string
	To     domain.RecordStatus
} {
	mock.lockTransition.RLock()
	calls := mock.calls.Transition
	mock.lockTransition.RUnlock()
	return calls
}

func (mock *metricsRecorderMock) Expired(from domain.RecordStatus, n int) {
	if mock.ExpiredFunc == nil {
		panic("metricsRecorderMock.ExpiredFunc: method is nil but metricsRecorder.Expired was just called")
	}
	callInfo := struct {
		From domain.RecordStatus
		N    int
	}{From: from, N: n}
	mock.lockExpired.Lock()
	mock.calls.Expired = append(mock.calls.Expired, callInfo)
	mock.lockExpired.Unlock()
	mock.ExpiredFunc(from, n)
}

func (mock *metricsRecorderMock) ExpiredCalls() []struct {
	From domain.RecordStatus
	N    int
} {
	mock.lockExpired.RLock()
	calls := mock.calls.Expired
	mock.lockExpired.RUnlock()
	return calls
}
