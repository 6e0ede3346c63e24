package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-astrox/httpclient"
)

func TestMockClientPost(t *testing.T) {
	m := NewMockClient()
	m.ExpectPost("/Propagator/J2", map[string]any{"IsSuccess": true}, nil)

	data, err := m.Post(context.Background(), "/Propagator/J2", httpclient.Raw{"Start": "x"})
	require.NoError(t, err)
	assert.Equal(t, true, data["IsSuccess"])
	m.AssertExpectations(t)
}

func TestMockClientPostError(t *testing.T) {
	m := NewMockClient()
	boom := httpclient.NewHTTPError("/Propagator/J2", "boom", 500, nil)
	m.ExpectPost("/Propagator/J2", nil, boom)

	data, err := m.Post(context.Background(), "/Propagator/J2", nil)
	assert.Nil(t, data)
	assert.True(t, errors.Is(err, boom))
}

func TestMockClientDo(t *testing.T) {
	m := NewMockClient()
	m.On("Do", mock.Anything, "/x", mock.Anything).Return(&httpclient.Response{StatusCode: 200}, nil).Once()
	m.On("Do", mock.Anything, "/y", mock.Anything).Return(nil, errors.New("down")).Once()

	resp, err := m.Do(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = m.Do(context.Background(), "/y", nil)
	assert.Nil(t, resp)
	assert.EqualError(t, err, "down")
}

func TestMockClientConfig(t *testing.T) {
	m := NewMockClient()
	assert.Equal(t, httpclient.DefaultRequestConfig(), m.Config())

	cfg := httpclient.DefaultRequestConfig()
	cfg.MaxRetries = 9
	assert.Equal(t, 9, m.WithConfig(cfg).Config().MaxRetries)
}

func TestPayloadMatching(t *testing.T) {
	m := NewMockClient()
	m.On("Post", mock.Anything, "/p", PayloadMatching(func(f map[string]any) bool {
		return f["Start"] == "2024-01-01T00:00:00.000Z"
	})).Return(map[string]any{}, nil)

	_, err := m.Post(context.Background(), "/p", httpclient.Raw{"Start": "2024-01-01T00:00:00.000Z"})
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "Post", 1)
}
