package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/model"
	"bloomwatch/internal/domain/model/external"
	pkghttp "bloomwatch/pkg/http"
	"bloomwatch/pkg/redis"
)

const dailyBody = `{
  "type": "Feature",
  "header": {"title": "NASA/POWER", "fill_value": -999.0, "start": "20250101", "end": "20250102"},
  "properties": {"parameter": {
    "T2M": {"20250101": 3.2, "20250102": -999.0},
    "PRECTOTCORR": {"20250101": 1.5, "20250102": 0.0}
  }},
  "messages": []
}`

func TestPowerGatewayDailyPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, powerDailyPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "T2M,PRECTOTCORR", q.Get("parameters"))
		assert.Equal(t, "AG", q.Get("community"))
		assert.Equal(t, "JSON", q.Get("format"))
		assert.Equal(t, "20250101", q.Get("start"))
		assert.Equal(t, "20250102", q.Get("end"))
		assert.Equal(t, "52.3700", q.Get("latitude"))
		assert.Equal(t, "4.9000", q.Get("longitude"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(dailyBody))
	}))
	defer srv.Close()

	gateway := NewPowerGateway(srv.URL, "", pkghttp.ClientOptions{}, nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	resp, err := gateway.GetDailyPoint(context.Background(), 52.37, 4.9, start, start.AddDate(0, 0, 1), []string{ParamTemperature, ParamRainfall})

	require.NoError(t, err)
	assert.Equal(t, -999.0, resp.FillValue())
	assert.Equal(t, 3.2, resp.Series(ParamTemperature)["20250101"])
	assert.Len(t, resp.Series(ParamRainfall), 2)
}

func TestPowerGatewayMonthlyPointUsesYears(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, powerMonthlyPath, r.URL.Path)
		assert.Equal(t, "2024", r.URL.Query().Get("start"))
		assert.Equal(t, "2024", r.URL.Query().Get("end"))
		_, _ = w.Write([]byte(`{"properties":{"parameter":{"ALLSKY_SFC_SW_DWN":{"202401":1.1,"202413":4.0}}}}`))
	}))
	defer srv.Close()

	gateway := NewPowerGateway(srv.URL, "AG", pkghttp.ClientOptions{}, nil)
	resp, err := gateway.GetMonthlyPoint(context.Background(), 10, 20, 2024, 2024, []string{ParamInsolation})

	require.NoError(t, err)
	assert.Equal(t, external.DefaultFillValue, resp.FillValue())
	assert.Equal(t, 1.1, resp.Series(ParamInsolation)["202401"])
}

func TestPowerGatewayErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"rejected request", http.StatusUnprocessableEntity, `{"header":"Validation error","messages":["latitude out of range"]}`, model.ErrInvalidInput},
		{"server error with messages", http.StatusInternalServerError, `{"messages":["maintenance"]}`, model.ErrUpstream},
		{"server error without body", http.StatusBadGateway, ``, model.ErrUpstream},
		{"no parameters", http.StatusOK, `{"properties":{"parameter":{}},"messages":["no data"]}`, model.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gateway := NewPowerGateway(srv.URL, "AG", pkghttp.ClientOptions{}, nil)
			_, err := gateway.GetDailyPoint(context.Background(), 1, 2, time.Now(), time.Now(), []string{ParamTemperature})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

type countingPower struct {
	calls int
	err   error
}

func (c *countingPower) GetDailyPoint(ctx context.Context, lat, lon float64, start, end time.Time, params []string) (*external.PowerResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var resp external.PowerResponse
	if err := json.Unmarshal([]byte(dailyBody), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *countingPower) GetMonthlyPoint(ctx context.Context, lat, lon float64, startYear, endYear int, params []string) (*external.PowerResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &external.PowerResponse{Properties: external.PowerProperties{
		Parameter: map[string]map[string]float64{ParamInsolation: {"202401": 2.5}},
	}}, nil
}

func newCaches(t *testing.T) (*redis.Cache, *redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	config := redis.DefaultConfig().WithCacheTTL("climate", time.Hour).WithCacheTTL("ndvi", 24*time.Hour)
	client := redis.NewClientFromUniversal(rdb, config)
	daily := redis.NewCache(client, redis.NewCacheOptions().WithCacheName("climate"))
	monthly := redis.NewCache(client, redis.NewCacheOptions().WithCacheName("ndvi"))
	return daily, monthly, mr
}

func TestCachedPowerGatewayReadsThrough(t *testing.T) {
	daily, monthly, mr := newCaches(t)
	next := &countingPower{}
	gateway := NewCachedPowerGateway(next, daily, monthly, nil)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := gateway.GetDailyPoint(ctx, 52.371, 4.899, start, start, []string{ParamTemperature})
	require.NoError(t, err)
	second, err := gateway.GetDailyPoint(ctx, 52.3712, 4.8991, start, start, []string{ParamTemperature})
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Series(ParamTemperature), second.Series(ParamTemperature))
	assert.True(t, mr.Exists("climate::daily:52.37:4.90:20250101-20250101:T2M"))

	_, err = gateway.GetMonthlyPoint(ctx, 52.37, 4.9, 2024, 2024, []string{ParamInsolation})
	require.NoError(t, err)
	_, err = gateway.GetMonthlyPoint(ctx, 52.37, 4.9, 2024, 2024, []string{ParamInsolation})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 24*time.Hour, mr.TTL("ndvi::monthly:52.37:4.90:2024-2024:ALLSKY_SFC_SW_DWN"))
}

func TestCachedPowerGatewayDoesNotCacheFailures(t *testing.T) {
	daily, monthly, mr := newCaches(t)
	next := &countingPower{err: model.Upstream(errors.New("boom"), "NASA POWER request failed")}
	gateway := NewCachedPowerGateway(next, daily, monthly, nil)

	for i := 0; i < 2; i++ {
		_, err := gateway.GetMonthlyPoint(context.Background(), 1, 2, 2024, 2024, []string{ParamInsolation})
		assert.ErrorIs(t, err, model.ErrUpstream)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, mr.Keys())
}

func TestIdentityGatewaySignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var grant external.PasswordGrant
		require.NoError(t, json.NewDecoder(r.Body).Decode(&grant))
		assert.Equal(t, "ana@example.com", grant.Email)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"ana@example.com","role":"authenticated"}}`))
	}))
	defer srv.Close()

	gateway := NewIdentityGateway(srv.URL, "anon", pkghttp.ClientOptions{}, nil)
	resp, err := gateway.SignIn(context.Background(), "ana@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "at", resp.AccessToken)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestIdentityGatewayGetUserSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u1","email":"ana@example.com","role":"authenticated"}`))
	}))
	defer srv.Close()

	gateway := NewIdentityGateway(srv.URL, "anon", pkghttp.ClientOptions{}, nil)
	user, err := gateway.GetUser(context.Background(), "token-1")

	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestIdentityGatewayErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		text   string
	}{
		{"bad credentials", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, model.ErrUnauthorized, "Invalid login credentials"},
		{"weak password", http.StatusUnprocessableEntity, `{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`, model.ErrInvalidInput, "Password should be at least 6 characters"},
		{"expired token", http.StatusUnauthorized, `{"message":"invalid JWT"}`, model.ErrUnauthorized, "invalid JWT"},
		{"throttled", http.StatusTooManyRequests, `{"msg":"rate limit"}`, model.ErrRateLimited, "rate limit"},
		{"outage", http.StatusInternalServerError, ``, model.ErrUpstream, "identity service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gateway := NewIdentityGateway(srv.URL, "anon", pkghttp.ClientOptions{}, nil)
			_, err := gateway.SignIn(context.Background(), "ana@example.com", "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.text, model.PublicMessage(err))
		})
	}
}
