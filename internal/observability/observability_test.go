package observability

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	require.NotNil(t, m.Store)
	require.NotNil(t, m.DevServer)
}

func TestWriteSnapshot(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Store.RecordOperation("list", "success")
	m.Store.RecordCacheHit()
	m.DevServer.SetRecordCount(7)

	var buf bytes.Buffer
	require.NoError(t, m.WriteSnapshot(&buf))

	out := buf.String()
	assert.Contains(t, out, "store_operations_total")
	assert.Contains(t, out, "store_list_cache_hits_total")
	assert.Contains(t, out, "devserver_records 7")
}

func TestMetricsHandler(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Store.RecordOperationError("update", "network")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "store_operation_errors_total"), "exposition includes recorded counters")
}
