package summarizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/echo-chat/pkg/errors"
)

func TestSummarizeReturnsContent(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{ok(`{"content":"Hi there"}`)}}
	svc, waits := newServiceUnderTest(testConfig(), transport)

	got, err := svc.Summarize(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Hi there", got)
	require.Equal(t, 1, transport.callCount())
	require.Empty(t, *waits)

	payload := transport.payloads[0]
	require.Equal(t, "Please summarize the following text:\n\nhello", payload.Prompt)
	require.Equal(t, "anonymous", payload.UserID)
	require.Equal(t, "0qg3df", payload.SessionID)
	require.False(t, payload.UseSearch)
}

func TestSummarizeMissingContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "absent", body: `{}`},
		{name: "empty", body: `{"content":""}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newServiceUnderTest(testConfig(), &stubTransport{replies: []stubReply{ok(tt.body)}})
			got, err := svc.Summarize(context.Background(), "text")
			require.NoError(t, err)
			require.Equal(t, NoContent, got)
		})
	}
}

func TestSummarizeRetriesGatewayTimeout(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{
		status(http.StatusGatewayTimeout),
		ok(`{"content":"recovered"}`),
	}}
	svc, waits := newServiceUnderTest(testConfig(), transport)

	got, err := svc.Summarize(context.Background(), "slow")
	require.NoError(t, err)
	require.Equal(t, "recovered", got)
	require.Equal(t, 2, transport.callCount())
	require.Equal(t, []time.Duration{2 * time.Second}, *waits)
	require.Equal(t, transport.payloads[0], transport.payloads[1])
}

func TestSummarizeGatewayTimeoutOnLastAttemptFails(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{
		status(http.StatusGatewayTimeout),
		status(http.StatusGatewayTimeout),
		status(http.StatusGatewayTimeout),
	}}
	svc, waits := newServiceUnderTest(testConfig(), transport)

	_, err := svc.Summarize(context.Background(), "slow")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, CodeStatus))
	require.Contains(t, err.Error(), "status 504")
	require.Equal(t, 3, transport.callCount())
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)
}

func TestSummarizeServerErrorsExhaustAttempts(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{
		status(http.StatusInternalServerError),
		status(http.StatusInternalServerError),
		status(http.StatusInternalServerError),
	}}
	svc, waits := newServiceUnderTest(testConfig(), transport)

	_, err := svc.SummarizeWithAttempts(context.Background(), "x", 3)
	require.Error(t, err)
	require.Equal(t, 3, transport.callCount())

	var total time.Duration
	for _, w := range *waits {
		total += w
	}
	require.GreaterOrEqual(t, total, 6*time.Second)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestSummarizeTransportErrorRecovers(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{
		{err: errors.New("connection reset")},
		ok(`{"content":"second time lucky"}`),
	}}
	svc, waits := newServiceUnderTest(testConfig(), transport)

	got, err := svc.Summarize(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, "second time lucky", got)
	require.Equal(t, []time.Duration{2 * time.Second}, *waits)
}

func TestSummarizeTransportErrorOnLastAttempt(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{{err: errors.New("no route to host")}}}
	svc, _ := newServiceUnderTest(testConfig(), transport)

	_, err := svc.SummarizeWithAttempts(context.Background(), "text", 1)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, CodeTransport))
	require.Contains(t, err.Error(), "no route to host")
	require.Equal(t, 1, transport.callCount())
}

func TestSummarizeMalformedBodyIsRetried(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{
		ok(`not json`),
		ok(`{"content":"fine"}`),
	}}
	svc, _ := newServiceUnderTest(testConfig(), transport)

	got, err := svc.Summarize(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, "fine", got)
	require.Equal(t, 2, transport.callCount())
}

func TestSummarizeTransientOnlySkipsMalformedRetry(t *testing.T) {
	cfg := testConfig()
	cfg.RetryTransientOnly = true
	transport := &stubTransport{replies: []stubReply{
		ok(`not json`),
		ok(`{"content":"unused"}`),
	}}
	svc, waits := newServiceUnderTest(cfg, transport)

	_, err := svc.Summarize(context.Background(), "text")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, CodeMalformed))
	require.Equal(t, 1, transport.callCount())
	require.Empty(t, *waits)
}

func TestSummarizeTransientOnlyStillRetriesServerErrors(t *testing.T) {
	cfg := testConfig()
	cfg.RetryTransientOnly = true
	transport := &stubTransport{replies: []stubReply{
		status(http.StatusServiceUnavailable),
		ok(`{"content":"up again"}`),
	}}
	svc, _ := newServiceUnderTest(cfg, transport)

	got, err := svc.Summarize(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, "up again", got)
}

func TestSummarizeNeverExceedsMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 3, 5} {
		transport := &stubTransport{replies: []stubReply{status(http.StatusBadGateway)}}
		svc, _ := newServiceUnderTest(testConfig(), transport)

		_, err := svc.SummarizeWithAttempts(context.Background(), "text", maxAttempts)
		require.Error(t, err)
		require.Equal(t, maxAttempts, transport.callCount())
	}
}

func TestSummarizeZeroAttemptsExhausted(t *testing.T) {
	transport := &stubTransport{}
	svc, _ := newServiceUnderTest(testConfig(), transport)

	_, err := svc.SummarizeWithAttempts(context.Background(), "text", 0)
	require.EqualError(t, err, "exhausted retries")
	require.True(t, apperrors.IsCode(err, CodeRetryExhausted))
	require.Zero(t, transport.callCount())
}

func TestSummarizeStopsWhenWaitInterrupted(t *testing.T) {
	transport := &stubTransport{replies: []stubReply{status(http.StatusInternalServerError)}}
	svc := newService(testConfig(), transport, newTestLogger(), func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	})

	_, err := svc.Summarize(context.Background(), "text")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, transport.callCount())
}

func TestWarmUpFailureIsSwallowed(t *testing.T) {
	cfg := testConfig()
	cfg.WarmUp = true
	cfg.BackoffUnit = time.Millisecond
	transport := &stubTransport{replies: []stubReply{{err: errors.New("offline")}}}

	svc := NewService(cfg, transport, newTestLogger())
	require.NotNil(t, svc)

	require.Eventually(t, func() bool {
		return transport.callCount() == cfg.MaxAttempts
	}, time.Second, 5*time.Millisecond)
	require.Contains(t, transport.payload(0).Prompt, "hi")
}

func TestBackoffIsLinear(t *testing.T) {
	svc := newService(Config{BackoffUnit: time.Second}, &stubTransport{}, newTestLogger(), sleepContext)
	require.Equal(t, 2*time.Second, svc.backoff(0))
	require.Equal(t, 4*time.Second, svc.backoff(1))
	require.Equal(t, 6*time.Second, svc.backoff(2))
}

func TestSleepContextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func testConfig() Config {
	return Config{
		PromptTemplate: DefaultPromptTemplate,
		UserID:         "anonymous",
		SessionID:      "0qg3df",
		MaxAttempts:    3,
		BackoffUnit:    time.Second,
	}
}

func newServiceUnderTest(cfg Config, transport Transport) (*service, *[]time.Duration) {
	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return newService(cfg, transport, newTestLogger(), sleep), &waits
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubReply struct {
	reply Reply
	err   error
}

func ok(body string) stubReply {
	return stubReply{reply: Reply{StatusCode: http.StatusOK, Body: []byte(body)}}
}

func status(code int) stubReply {
	return stubReply{reply: Reply{StatusCode: code, Body: []byte(`{"error":"upstream"}`)}}
}

// stubTransport replays replies in order and repeats the last one once exhausted.
type stubTransport struct {
	mu       sync.Mutex
	replies  []stubReply
	payloads []Payload
}

func (s *stubTransport) Post(_ context.Context, payload Payload) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	if len(s.replies) == 0 {
		return Reply{}, errors.New("no reply configured")
	}
	idx := len(s.payloads) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	r := s.replies[idx]
	return r.reply, r.err
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func (s *stubTransport) payload(i int) Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[i]
}
