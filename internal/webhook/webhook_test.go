package webhook

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type received struct {
	host  string
	event string
	body  model.NotificationEvent
}

// startServer answers 500 for the host "down" and 204 otherwise.
func startServer(t *testing.T) (func(string) (net.Conn, error), func() []received) {
	ln := fasthttputil.NewInmemoryListener()
	var (
		mu  sync.Mutex
		got []received
	)
	go func() {
		_ = fasthttp.Serve(ln, func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Host()) == "down" {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				return
			}
			var ev model.NotificationEvent
			_ = json.Unmarshal(ctx.PostBody(), &ev)
			mu.Lock()
			got = append(got, received{
				host:  string(ctx.Host()),
				event: string(ctx.Request.Header.Peek(EventHeader)),
				body:  ev,
			})
			mu.Unlock()
			ctx.SetStatusCode(fasthttp.StatusNoContent)
		})
	}()
	t.Cleanup(func() { _ = ln.Close() })

	dial := func(string) (net.Conn, error) { return ln.Dial() }
	return dial, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func rejectedEvent() model.NotificationEvent {
	return model.NotificationEvent{NotificationID: 3, TenantID: 11, Type: model.NotificationPaymentRejected, Title: "Payment Rejected"}
}

func TestSink_Deliver(t *testing.T) {
	dial, got := startServer(t)
	sink, err := NewSink(Config{URLs: []string{"http://hooks/notify"}, Dial: dial})
	require.NoError(t, err)

	require.NoError(t, sink.Deliver(context.Background(), rejectedEvent()))

	list := got()
	require.Len(t, list, 1)
	assert.Equal(t, "hooks", list[0].host)
	assert.Equal(t, "payment_rejected", list[0].event)
	assert.Equal(t, int64(3), list[0].body.NotificationID)
}

func TestSink_FailsOverToHealthyEndpoint(t *testing.T) {
	dial, got := startServer(t)
	sink, err := NewSink(Config{
		URLs:       []string{"http://down/notify", "http://backup/notify"},
		MaxRetries: 1,
		Dial:       dial,
	})
	require.NoError(t, err)

	require.NoError(t, sink.Deliver(context.Background(), rejectedEvent()))

	list := got()
	require.Len(t, list, 1)
	assert.Equal(t, "backup", list[0].host)

	stats := sink.Stats()
	assert.Equal(t, int64(1), stats[0].FailedReqs)
	assert.Equal(t, int32(1), stats[0].ConsecutiveFails)
	assert.Equal(t, int64(1), stats[1].TotalRequests)
}

func TestSink_CircuitBreaker(t *testing.T) {
	dial, _ := startServer(t)
	sink, err := NewSink(Config{
		URLs:                    []string{"http://down/notify"},
		CircuitBreakerThreshold: 2,
		CircuitBreakerTimeout:   time.Minute,
		Dial:                    dial,
	})
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return now }

	assert.Error(t, sink.Deliver(context.Background(), rejectedEvent()))
	assert.True(t, sink.Stats()[0].Available)

	assert.Error(t, sink.Deliver(context.Background(), rejectedEvent()))
	assert.False(t, sink.Stats()[0].Available)

	err = sink.Deliver(context.Background(), rejectedEvent())
	assert.ErrorIs(t, err, ErrNoAvailableEndpoints)

	now = now.Add(2 * time.Minute)
	assert.True(t, sink.Stats()[0].Available)
}

func TestEndpoint_Score(t *testing.T) {
	fresh := &Endpoint{url: "a"}
	assert.InDelta(t, 100.0, fresh.Score(), 0.001)

	flaky := &Endpoint{url: "b"}
	flaky.metrics.RecordSuccess(100)
	flaky.metrics.RecordFailure()
	assert.Less(t, flaky.Score(), fresh.Score())
}

func TestParseURLs(t *testing.T) {
	assert.Equal(t, []string{"http://a/x", "http://b/y"}, ParseURLs(" http://a/x, ,http://b/y "))
	assert.Nil(t, ParseURLs(""))
}

func TestNewSink_Validation(t *testing.T) {
	_, err := NewSink(Config{})
	assert.Error(t, err)
}
