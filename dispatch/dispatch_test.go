package dispatch

import (
	"sync"
	"testing"

	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/logger"
	"github.com/arloliu/go-comms/message"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testAlpha struct{ message.Base }

func newTestAlpha() *testAlpha { return &testAlpha{Base: message.NewBase(1, "Alpha")} }

type testBeta struct{ message.Base }

func newTestBeta() *testBeta { return &testBeta{Base: message.NewBase(2, "Beta")} }

type recorder struct {
	msgs []message.Message
}

func (r *recorder) HandleMessage(msg message.Message) { r.msgs = append(r.msgs, msg) }

// frame.Dispatcher is satisfied by *Dispatcher
var _ frame.Dispatcher = (*Dispatcher)(nil)

func TestDispatcher_Routing(t *testing.T) {
	tests := []struct {
		description   string
		msg           message.Message
		expectedAlpha int
		expectedBeta  int
		expectedFall  int
	}{
		{description: "typed alpha", msg: newTestAlpha(), expectedAlpha: 1},
		{description: "typed beta", msg: newTestBeta(), expectedBeta: 1},
		{description: "raw message goes to fallback", msg: message.NewRaw(9, []byte{0x01}), expectedFall: 1},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		fallback := &recorder{}
		d := New(fallback)

		alpha, beta := 0, 0
		Handle(d, func(*testAlpha) { alpha++ })
		Handle(d, func(*testBeta) { beta++ })

		require.NoError(d.Dispatch(test.msg))
		require.Equal(test.expectedAlpha, alpha)
		require.Equal(test.expectedBeta, beta)
		require.Len(fallback.msgs, test.expectedFall)
		require.Equal(Idle, d.State())
	}
}

func TestDispatcher_TypedHandlerReceivesTypedMessage(t *testing.T) {
	require := require.New(t)

	d := New(nil)
	sent := newTestAlpha()

	var got *testAlpha
	Handle(d, func(m *testAlpha) { got = m })
	require.True(d.Handles(sent))
	require.False(d.Handles(newTestBeta()))

	require.NoError(d.Dispatch(sent))
	require.Same(sent, got)
	require.Equal(uint64(1), d.Metrics().DispatchedCount.Load())
	require.Zero(d.Metrics().FallbackCount.Load())
}

func TestDispatcher_NilFallbackIsNop(t *testing.T) {
	require := require.New(t)

	d := New(nil)
	require.NoError(d.Dispatch(newTestBeta()))
	require.Equal(uint64(1), d.Metrics().FallbackCount.Load())

	require.Error(d.Dispatch(nil))
}

func TestDispatcher_HandleReplacesAndRemoves(t *testing.T) {
	require := require.New(t)

	fallback := &recorder{}
	d := New(fallback)

	first, second := 0, 0
	Handle(d, func(*testAlpha) { first++ })
	Handle(d, func(*testAlpha) { second++ })
	require.NoError(d.Dispatch(newTestAlpha()))
	require.Zero(first)
	require.Equal(1, second)

	Handle[*testAlpha](d, nil)
	require.NoError(d.Dispatch(newTestAlpha()))
	require.Len(fallback.msgs, 1)
}

func TestDispatcher_Strict(t *testing.T) {
	require := require.New(t)

	fallback := &recorder{}
	d := New(fallback, WithStrict())
	Handle(d, func(*testAlpha) {})

	require.NoError(d.Dispatch(newTestAlpha()))

	err := d.Dispatch(newTestBeta())
	require.ErrorIs(err, ErrUnhandled)
	require.Contains(err.Error(), "Beta(2)")
	require.Len(fallback.msgs, 1, "the fallback runs before the error")
}

func TestDispatcher_Reentrant(t *testing.T) {
	require := require.New(t)

	d := New(nil)

	var (
		inner      error
		innerState State
	)
	Handle(d, func(*testAlpha) {
		innerState = d.State()
		inner = d.Dispatch(newTestBeta())
	})

	require.NoError(d.Dispatch(newTestAlpha()))
	require.Equal(Dispatched, innerState)
	require.ErrorIs(inner, ErrBusy)
	require.Equal(Idle, d.State())
	require.Equal(uint64(1), d.Metrics().BusyCount.Load())
}

func TestDispatcher_PanicRestoresIdle(t *testing.T) {
	require := require.New(t)

	d := New(nil)
	Handle(d, func(*testAlpha) { panic("boom") })

	require.Panics(func() { _ = d.Dispatch(newTestAlpha()) })
	require.Equal(Idle, d.State())
	require.NoError(d.Dispatch(newTestBeta()))
}

func TestDispatcher_ConcurrentHandle(t *testing.T) {
	require := require.New(t)

	d := New(nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Handle(d, func(*testAlpha) {})
			Handle(d, func(*testBeta) {})
		}()
	}
	wg.Wait()

	require.True(d.Handles(newTestAlpha()))
	require.True(d.Handles(newTestBeta()))
}

func TestDispatcher_FallbackLogged(t *testing.T) {
	require := require.New(t)

	mockLogger := logger.NewMockLogger()
	mockLogger.On("Debug", "message routed to fallback", mock.Anything).Once()

	d := New(HandlerFunc(func(message.Message) {}), WithLogger(mockLogger))
	require.NoError(d.Dispatch(newTestBeta()))

	mockLogger.AssertExpectations(t)
}

func TestState_String(t *testing.T) {
	require := require.New(t)

	require.Equal("idle", Idle.String())
	require.Equal("message-received", MessageReceived.String())
	require.Equal("dispatched", Dispatched.String())
	require.Equal("unknown", State(7).String())
}
