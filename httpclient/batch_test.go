package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-astrox/testing/astroxtest"
)

func TestPostAllKeepsInputOrder(t *testing.T) {
	srv := astroxtest.New(t)
	calls := make([]Call, 0, 5)
	for i := range 5 {
		endpoint := fmt.Sprintf("/Batch/%d", i)
		srv.Script(endpoint, astroxtest.Success(map[string]any{"Index": i}))
		calls = append(calls, Call{Endpoint: endpoint, Payload: Raw{"I": i}})
	}
	c, _ := newTestClient(t, srv, nil)

	results, err := PostAll(context.Background(), c, calls, 2)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, json.Number(strconv.Itoa(i)), r["Index"])
	}
	assert.Equal(t, 5, srv.Count(""))
}

func TestPostAllReturnsFirstError(t *testing.T) {
	srv := astroxtest.New(t)
	srv.Script("/ok", astroxtest.Success(nil))
	srv.Script("/bad", astroxtest.Status(http.StatusBadRequest, "nope"))
	c, _ := newTestClient(t, srv, nil)

	_, err := PostAll(context.Background(), c, []Call{
		{Endpoint: "/ok"},
		{Endpoint: "/bad"},
	}, 0)
	require.Error(t, err)
	assert.True(t, IsHTTPStatusError(err, http.StatusBadRequest))
}

func TestPostAllEmpty(t *testing.T) {
	srv := astroxtest.New(t)
	c, _ := newTestClient(t, srv, nil)

	results, err := PostAll(context.Background(), c, nil, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}
