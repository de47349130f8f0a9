package naming

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palette-makeup-server/modules/common/config"
)

// fakeColorAPI - hex 별 이름을 돌려주는 테스트 서버
type fakeColorAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int // 남은 실패 횟수
	status   int
	delay    func(hex string) time.Duration
}

func newFakeColorAPI() *fakeColorAPI {
	return &fakeColorAPI{calls: map[string]int{}, failures: map[string]int{}, status: http.StatusInternalServerError}
}

func (f *fakeColorAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/id" {
		http.NotFound(w, r)
		return
	}
	hex := r.URL.Query().Get("hex")

	f.mu.Lock()
	f.calls[hex]++
	fail := f.failures[hex] > 0
	if fail {
		f.failures[hex]--
	}
	f.mu.Unlock()

	if f.delay != nil {
		time.Sleep(f.delay(hex))
	}
	if fail {
		w.WriteHeader(f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"hex":{"value":"#%s"},"name":{"value":"Name-%s","closest_named_hex":"#%s"}}`, hex, strings.ToUpper(hex), hex)
}

func (f *fakeColorAPI) callCount(hex string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[hex]
}

func newTestService(t *testing.T, api *fakeColorAPI, opts Options, nameCache NameCache) *Service {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	opts.InitialBackoff = time.Millisecond
	return NewService(NewClient(srv.URL+"/", 5*time.Second), nameCache, opts)
}

func TestNameColors_OrderAndLength(t *testing.T) {
	api := newFakeColorAPI()
	// 앞쪽 색일수록 늦게 응답
	api.delay = func(hex string) time.Duration {
		switch hex {
		case "112233":
			return 60 * time.Millisecond
		case "445566":
			return 30 * time.Millisecond
		}
		return 0
	}
	hexes := []string{"#112233", "#445566", "#778899", "#aabbcc"}

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			svc := newTestService(t, api, Options{Concurrency: concurrency}, nil)

			names, err := svc.NameColors(context.Background(), hexes)
			require.NoError(t, err)
			require.Len(t, names, len(hexes))
			assert.Equal(t, []string{"Name-112233", "Name-445566", "Name-778899", "Name-AABBCC"}, names)
		})
	}
}

func TestNameColors_Empty(t *testing.T) {
	svc := newTestService(t, newFakeColorAPI(), Options{}, nil)

	names, err := svc.NameColors(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNameColors_RetryRecovers(t *testing.T) {
	api := newFakeColorAPI()
	api.failures["445566"] = 2

	svc := newTestService(t, api, Options{MaxRetries: 2}, nil)

	names, err := svc.NameColors(context.Background(), []string{"#112233", "#445566"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name-112233", "Name-445566"}, names)
	assert.Equal(t, 3, api.callCount("445566"))
}

func TestNameColors_PlaceholderPolicy(t *testing.T) {
	api := newFakeColorAPI()
	api.failures["445566"] = 100

	svc := newTestService(t, api, Options{MaxRetries: 1, Placeholder: "unknown"}, nil)

	names, err := svc.NameColors(context.Background(), []string{"#112233", "#445566", "#778899"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name-112233", "unknown", "Name-778899"}, names)
	assert.Equal(t, 2, api.callCount("445566"), "one attempt plus one retry")
}

func TestNameColors_FailPolicy(t *testing.T) {
	api := newFakeColorAPI()
	api.failures["445566"] = 100

	svc := newTestService(t, api, Options{MaxRetries: 0, FailurePolicy: config.NamingPolicyFail}, nil)

	names, err := svc.NameColors(context.Background(), []string{"#112233", "#445566"})
	require.Error(t, err)
	assert.Nil(t, names)
	assert.Contains(t, err.Error(), "#445566")
}

func TestNameColors_ClientErrorIsNotRetried(t *testing.T) {
	api := newFakeColorAPI()
	api.status = http.StatusBadRequest
	api.failures["112233"] = 100

	svc := newTestService(t, api, Options{MaxRetries: 3}, nil)

	names, err := svc.NameColors(context.Background(), []string{"#112233"})
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown"}, names)
	assert.Equal(t, 1, api.callCount("112233"))
}

func TestNameColors_UsesCache(t *testing.T) {
	api := newFakeColorAPI()
	nameCache := NewMemoryCache(time.Minute)
	svc := newTestService(t, api, Options{}, nameCache)

	for i := 0; i < 3; i++ {
		names, err := svc.NameColors(context.Background(), []string{"#112233"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Name-112233"}, names)
	}
	assert.Equal(t, 1, api.callCount("112233"))

	cached, ok := nameCache.Get(context.Background(), "112233")
	assert.True(t, ok)
	assert.Equal(t, "Name-112233", cached)
}

func TestNameColors_CancelledContext(t *testing.T) {
	api := newFakeColorAPI()
	api.delay = func(string) time.Duration { return 200 * time.Millisecond }
	svc := newTestService(t, api, Options{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.NameColors(ctx, []string{"#112233"})
	assert.Error(t, err)
}

// countingLookup - Lookuper 호출 동시성 측정
type countingLookup struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingLookup) Lookup(ctx context.Context, hex string) (string, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return "n" + hex, nil
}

func TestNameColors_ConcurrencyBound(t *testing.T) {
	lookup := &countingLookup{}
	svc := NewService(lookup, nil, Options{Concurrency: 2})

	hexes := []string{"#000001", "#000002", "#000003", "#000004", "#000005", "#000006"}
	names, err := svc.NameColors(context.Background(), hexes)
	require.NoError(t, err)
	assert.Len(t, names, len(hexes))
	assert.LessOrEqual(t, lookup.peak.Load(), int32(2))
}
