package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamware/vectorshard/internal/collection"
	"github.com/dreamware/vectorshard/internal/memshard"
)

func TestGetenvFallsBackToDefault(t *testing.T) {
	t.Setenv("NODE_LISTEN", "")
	assert.Equal(t, ":8081", getenv("NODE_LISTEN", ":8081"))
}

func TestGetenvIntParsesOrFallsBack(t *testing.T) {
	t.Setenv("NODE_SHARDS", "7")
	assert.Equal(t, 7, getenvInt("NODE_SHARDS", 4))

	t.Setenv("NODE_SHARDS", "not-a-number")
	assert.Equal(t, 4, getenvInt("NODE_SHARDS", 4))

	t.Setenv("NODE_SHARDS", "")
	assert.Equal(t, 4, getenvInt("NODE_SHARDS", 4))
}

func TestNoRangeIndexSchemaAlwaysFalse(t *testing.T) {
	assert.False(t, noRangeIndexSchema{}.HasRangeIndex("price"))
}

func TestHandleControlRunsUnderAdminExclusion(t *testing.T) {
	holder := memshard.NewHolder(2)
	coll := collection.New(holder, noRangeIndexSchema{}, collection.WithLogger(zap.NewNop()))
	srv := &server{collection: coll, holder: holder, log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/control", nil)
	w := httptest.NewRecorder()
	srv.handleControl(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
