package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jekaa/txmap/internal/api"
	"github.com/jekaa/txmap/internal/store"
	"github.com/jekaa/txmap/internal/threadlocal"
	"github.com/jekaa/txmap/mvcc"
)

func newTestServer() *api.Server {
	storage := store.NewMapStorage[string, []byte](nil)
	m := mvcc.UnsafeNew[string, []byte](threadlocal.New(), storage)
	return api.NewServer(m, storage)
}

func TestPutGetDelete(t *testing.T) {
	s := newTestServer()
	h := s.Handler()

	putReq := httptest.NewRequest(http.MethodPut, "/keys/greeting", bytes.NewBufferString(`{"value":"hello"}`))
	putRec := httptest.NewRecorder()
	h.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusNoContent, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/keys/greeting", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.JSONEq(t, `{"key":"greeting","value":"hello"}`, getRec.Body.String())

	delReq := httptest.NewRequest(http.MethodDelete, "/keys/greeting", nil)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, delReq)
	require.Equal(t, http.StatusNoContent, delRec.Code)

	getReq2 := httptest.NewRequest(http.MethodGet, "/keys/greeting", nil)
	getRec2 := httptest.NewRecorder()
	h.ServeHTTP(getRec2, getReq2)
	assert.Equal(t, http.StatusNotFound, getRec2.Code)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestServer()
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/keys/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutRejectsOversizedValue(t *testing.T) {
	s := newTestServer()
	h := s.Handler()

	big := bytes.Repeat([]byte("x"), 1048577)
	body := append([]byte(`{"value":"`), append(big, []byte(`"}`)...)...)

	req := httptest.NewRequest(http.MethodPut, "/keys/big", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
