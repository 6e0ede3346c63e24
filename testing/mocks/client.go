package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/go-astrox/httpclient"
)

// MockClient provides a testify-based mock implementation of httpclient.Client.
//
// Example usage:
//
//	mockClient := mocks.NewMockClient()
//	mockClient.On("Post", mock.Anything, "/Propagator/TwoBody", mock.Anything).
//		Return(map[string]any{"IsSuccess": true}, nil)
//
//	ctx := session.WithClient(context.Background(), mockClient)
type MockClient struct {
	mock.Mock

	config httpclient.RequestConfig
}

var _ httpclient.Client = (*MockClient)(nil)

// NewMockClient creates a mock whose Config returns the default request configuration.
func NewMockClient() *MockClient {
	return &MockClient{config: httpclient.DefaultRequestConfig()}
}

// Post implements httpclient.Client
func (m *MockClient) Post(ctx context.Context, endpoint string, payload httpclient.Payload) (map[string]any, error) {
	arguments := m.Called(ctx, endpoint, payload)
	var data map[string]any
	if v := arguments.Get(0); v != nil {
		data = v.(map[string]any)
	}
	return data, arguments.Error(1)
}

// Do implements httpclient.Client
func (m *MockClient) Do(ctx context.Context, endpoint string, payload httpclient.Payload) (*httpclient.Response, error) {
	arguments := m.Called(ctx, endpoint, payload)
	var resp *httpclient.Response
	if v := arguments.Get(0); v != nil {
		resp = v.(*httpclient.Response)
	}
	return resp, arguments.Error(1)
}

// Config implements httpclient.Client. It is not recorded as a call.
func (m *MockClient) Config() httpclient.RequestConfig {
	return m.config
}

// WithConfig sets the value returned by Config.
func (m *MockClient) WithConfig(cfg httpclient.RequestConfig) *MockClient {
	m.config = cfg
	return m
}

// ExpectPost is shorthand for On("Post", mock.Anything, endpoint, mock.Anything).
func (m *MockClient) ExpectPost(endpoint string, data map[string]any, err error) *mock.Call {
	return m.On("Post", mock.Anything, endpoint, mock.Anything).Return(data, err)
}

// PayloadMatching matches a payload whose normalized form satisfies fn.
func PayloadMatching(fn func(fields map[string]any) bool) any {
	return mock.MatchedBy(func(p httpclient.Payload) bool {
		fields, err := httpclient.Normalize(p)
		return err == nil && fn(fields)
	})
}
