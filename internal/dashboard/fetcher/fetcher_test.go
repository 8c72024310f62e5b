package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridge_monitor"
	"fridge_monitor/internal/dashboard/filter"
)

func TestQuery(t *testing.T) {
	cases := []struct {
		name string
		page int
		c    filter.Criteria
		want url.Values
	}{
		{
			name: "no filters",
			page: 1,
			want: url.Values{"page": {"1"}, "limit": {"20"}},
		},
		{
			name: "numeric fridge id forwarded",
			page: 2,
			c:    filter.Criteria{FridgeID: "3", InstrumentName: "one"},
			want: url.Values{"page": {"2"}, "limit": {"20"}, "fridge_id": {"3"}, "instrument_name": {"one"}},
		},
		{
			name: "non-numeric fridge id omitted",
			page: 1,
			c:    filter.Criteria{FridgeID: "3a", ParameterName: "flux"},
			want: url.Values{"page": {"1"}, "limit": {"20"}, "parameter_name": {"flux"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Query(tc.page, tc.c))
		})
	}
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(1, 55))
	assert.True(t, HasMore(2, 55))
	assert.False(t, HasMore(3, 55))
	assert.False(t, HasMore(1, 20))
	assert.False(t, HasMore(1, 0))
	assert.True(t, HasMore(1, 21))
}

func TestFetchPage_Success(t *testing.T) {
	var gotQuery url.Values
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(fridge_monitor.FridgePage{
			Fridges: []fridge_monitor.Record{{FridgeID: 1, InstrumentName: "instrument_one", Timestamp: 10}},
			Total:   41,
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	page, err := c.FetchPage(context.Background(), 3, filter.Criteria{ParameterName: "volt"})
	require.NoError(t, err)
	assert.Equal(t, PathFridges, gotPath)
	assert.Equal(t, "3", gotQuery.Get("page"))
	assert.Equal(t, "20", gotQuery.Get("limit"))
	assert.Equal(t, "volt", gotQuery.Get("parameter_name"))
	assert.Equal(t, 41, page.Total)
	require.Len(t, page.Fridges, 1)
	assert.Equal(t, "instrument_one", page.Fridges[0].InstrumentName)
}

func TestFetchPage_SettingsPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"fridges":null,"total":0}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", WithPath(PathSettings))
	require.NoError(t, err)

	page, err := c.FetchPage(context.Background(), 1, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, PathSettings, gotPath)
	assert.NotNil(t, page.Fridges)
	assert.Empty(t, page.Fridges)
}

func TestFetchPage_Errors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		kind    error
	}{
		{
			name:    "server error is network",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			kind:    fridge_monitor.ErrNetwork,
		},
		{
			name:    "malformed body is decode",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"fridges":[{`)) },
			kind:    fridge_monitor.ErrDecode,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c, err := New(srv.URL)
			require.NoError(t, err)

			_, err = c.FetchPage(context.Background(), 1, filter.Criteria{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestFetchPage_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.FetchPage(context.Background(), 1, filter.Criteria{})
	require.ErrorIs(t, err, fridge_monitor.ErrNetwork)
}

func TestWithTimeout_LeavesCallerClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c, err := New("http://localhost:8080", WithHTTPClient(shared), WithTimeout(2*time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 2*time.Second, c.http.Timeout)
	assert.NotSame(t, shared, c.http)
}

func TestFetchPage_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.FetchPage(ctx, 1, filter.Criteria{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchPage_RejectsInvalidPage(t *testing.T) {
	c, err := New("http://localhost:0")
	require.NoError(t, err)
	_, err = c.FetchPage(context.Background(), 0, filter.Criteria{})
	assert.Error(t, err)
}

func TestNew_RejectsBadScheme(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
}

func TestFetchAnalytics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathAnalytics, r.URL.Path)
		_, _ = w.Write([]byte(`{
			"byFridge": {"1": {"count": 2, "avgValue": 0.5, "minValue": 0.1, "maxValue": 0.9}},
			"byInstrument": {},
			"byParameter": {},
			"overall": {"totalRecords": 2, "avgValue": 0.5, "minValue": 0.1, "maxValue": 0.9}
		}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	a, err := c.FetchAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, a.Overall.TotalRecords)
	assert.Equal(t, 2, a.ByFridge["1"].Count)
	assert.InDelta(t, 0.9, a.ByFridge["1"].MaxValue, 1e-9)
}
