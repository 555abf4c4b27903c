package geolib

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CircuitBreakerTestSuite struct {
	suite.Suite

	cb        *circuitBreaker
	ctx       context.Context
	ctxCancel context.CancelFunc
}

func (suite *CircuitBreakerTestSuite) SetupTest() {
	suite.ctx, suite.ctxCancel = context.WithCancel(context.Background())
	suite.cb = newCircuitBreaker(2, 200*time.Millisecond, 500*time.Millisecond)
}

func (suite *CircuitBreakerTestSuite) TearDownTest() {
	suite.ctxCancel()

	suite.cb.mutex.Lock()
	defer suite.cb.mutex.Unlock()

	suite.cb.stopTimer(&suite.cb.failuresCleanupTimer)
	suite.cb.stopTimer(&suite.cb.halfOpenTimer)
}

func (suite *CircuitBreakerTestSuite) CallbackOk(_ context.Context) (*http.Response, error) {
	rec := httptest.NewRecorder()

	rec.WriteHeader(http.StatusCreated)

	return rec.Result(), nil
}

func (suite *CircuitBreakerTestSuite) CallbackErr(_ context.Context) (*http.Response, error) {
	return nil, io.EOF
}

func (suite *CircuitBreakerTestSuite) CallbackIgnore(_ context.Context) (*http.Response, error) {
	return nil, ErrCircuitBreakerIgnore
}

func (suite *CircuitBreakerTestSuite) failTimes(times int) {
	for i := 0; i < times; i++ {
		suite.cb.Do(suite.ctx, suite.CallbackErr) // nolint: errcheck
	}
}

func (suite *CircuitBreakerTestSuite) FailuresCount() uint32 {
	suite.cb.mutex.Lock()
	defer suite.cb.mutex.Unlock()

	return suite.cb.failuresCount
}

func (suite *CircuitBreakerTestSuite) AssertState(state uint32) {
	suite.Equal(state, suite.cb.state.Load())
}

func (suite *CircuitBreakerTestSuite) TestManyExecuted() {
	wg := &sync.WaitGroup{}
	mutex := &sync.Mutex{}
	codes := []int{}

	wg.Add(5)

	for i := 0; i < 5; i++ {
		go func() {
			defer wg.Done()

			resp, err := suite.cb.Do(suite.ctx, suite.CallbackOk)
			if err != nil {
				return
			}

			mutex.Lock()
			codes = append(codes, resp.StatusCode)
			mutex.Unlock()
		}()
	}

	wg.Wait()

	suite.Len(codes, 5)

	for _, v := range codes {
		suite.Equal(http.StatusCreated, v)
	}
}

func (suite *CircuitBreakerTestSuite) TestSomeFailuresButStillWorks() {
	suite.failTimes(1)

	for i := 0; i < 5; i++ {
		resp, err := suite.cb.Do(suite.ctx, suite.CallbackOk)

		suite.NoError(err)
		suite.Equal(http.StatusCreated, resp.StatusCode)
	}

	suite.EqualValues(0, suite.FailuresCount())
	suite.AssertState(circuitBreakerStateClosed)
}

func (suite *CircuitBreakerTestSuite) TestSomeFailuresButStillClosed() {
	suite.failTimes(1)
	suite.EqualValues(1, suite.FailuresCount())
	suite.AssertState(circuitBreakerStateClosed)

	suite.failTimes(1)
	suite.EqualValues(2, suite.FailuresCount())
	suite.AssertState(circuitBreakerStateClosed)

	suite.failTimes(1)
	suite.EqualValues(0, suite.FailuresCount())
	suite.AssertState(circuitBreakerStateOpened)
}

func (suite *CircuitBreakerTestSuite) TestClosedFailureReset() {
	suite.failTimes(2)

	suite.Eventually(func() bool {
		return suite.FailuresCount() == 0
	}, time.Second, 10*time.Millisecond)
	suite.AssertState(circuitBreakerStateClosed)
}

func (suite *CircuitBreakerTestSuite) TestOpenedExecute() {
	suite.failTimes(3)

	_, err := suite.cb.Do(suite.ctx, suite.CallbackOk)

	suite.ErrorIs(err, ErrCircuitBreakerOpened)
	suite.AssertState(circuitBreakerStateOpened)
}

func (suite *CircuitBreakerTestSuite) TestIgnoredErrors() {
	for i := 0; i < 4; i++ {
		suite.cb.Do(suite.ctx, suite.CallbackIgnore) // nolint: errcheck
	}

	_, err := suite.cb.Do(suite.ctx, suite.CallbackOk)

	suite.NoError(err)
	suite.AssertState(circuitBreakerStateClosed)
}

func (suite *CircuitBreakerTestSuite) TestClosedContextIsIgnored() {
	suite.ctxCancel()
	suite.failTimes(4)

	suite.EqualValues(0, suite.FailuresCount())
	suite.AssertState(circuitBreakerStateClosed)
}

func (suite *CircuitBreakerTestSuite) TestHalfOpened() {
	suite.failTimes(3)

	suite.Eventually(func() bool {
		return suite.cb.state.Load() == circuitBreakerStateHalfOpened
	}, time.Second, 10*time.Millisecond)
}

func (suite *CircuitBreakerTestSuite) TestHalfOpenedErr() {
	suite.failTimes(3)
	time.Sleep(400 * time.Millisecond)
	suite.AssertState(circuitBreakerStateHalfOpened)

	suite.failTimes(1)
	suite.AssertState(circuitBreakerStateOpened)
}

func (suite *CircuitBreakerTestSuite) TestHalfOpenedOk() {
	suite.failTimes(3)
	time.Sleep(400 * time.Millisecond)

	_, err := suite.cb.Do(suite.ctx, suite.CallbackOk)

	suite.NoError(err)
	suite.AssertState(circuitBreakerStateClosed)
}

func (suite *CircuitBreakerTestSuite) TestCheckConcurrentExecutionInHalfOpened() {
	suite.failTimes(3)
	time.Sleep(400 * time.Millisecond)

	done := make(chan struct{})

	go func() {
		defer close(done)

		suite.cb.Do(suite.ctx, func(_ context.Context) (*http.Response, error) { // nolint: errcheck
			time.Sleep(300 * time.Millisecond)

			return nil, nil
		})
	}()

	time.Sleep(50 * time.Millisecond)

	_, err := suite.cb.Do(suite.ctx, suite.CallbackOk)

	suite.ErrorIs(err, ErrCircuitBreakerOpened)

	<-done

	suite.AssertState(circuitBreakerStateClosed)
}

func TestCircuitBreaker(t *testing.T) {
	suite.Run(t, &CircuitBreakerTestSuite{})
}
