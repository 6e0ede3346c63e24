// Package testing groups the test helpers for code built on go-astrox.
//
// # Mocks
//
// The mocks subpackage provides a testify-based httpclient.Client. Install it with
// session.WithClient to unit-test endpoint wrappers without a network:
//
//	m := mocks.NewMockClient()
//	m.ExpectPost("/Propagator/J2", map[string]any{"IsSuccess": true}, nil)
//	ctx := session.WithClient(context.Background(), m)
//
// # Fake server
//
// The astroxtest subpackage runs an in-process HTTP server that answers scripted
// replies per endpoint (success, logical failure, status codes, hangs and dropped
// connections) and records every request it receives:
//
//	srv := astroxtest.New(t)
//	srv.Script("/Propagator/J2", astroxtest.Status(503, "busy"), astroxtest.Success(nil))
//	client, _ := httpclient.NewBuilder(nil).WithBaseURL(srv.URL).Build()
package testing
