package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/engine"
	"pump_bot/internal/modules/health/service"
)

func TestMux(t *testing.T) {
	st := service.NewState()
	eng := engine.NewState(engine.DefaultConfig(), engine.RuntimeConfig{})
	_, err := eng.OpenPosition("AUSDT", 1, 1)
	require.NoError(t, err)
	mux := NewMux(st, eng)

	do := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, do("/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do("/readyz").Code)

	st.SetReady(true)
	st.SetShardsTotal(3)
	st.ShardUp()
	st.ShardUp()
	st.ShardDown()
	st.TouchTick(time.Unix(1700000000, 0))
	assert.Equal(t, http.StatusOK, do("/readyz").Code)

	rec := do("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, true, body["wsConnected"])
	assert.Equal(t, float64(1), body["shardsConnected"])
	assert.Equal(t, float64(3), body["shardsTotal"])
	assert.Equal(t, float64(1700000000), body["lastTickUnix"])
	assert.Equal(t, float64(1), body["openPositions"])
	assert.Equal(t, false, body["running"])

	assert.Equal(t, http.StatusOK, do("/metrics").Code)
}
