package breaker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/logger"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
)

type stubCatalog struct {
	err   error
	calls int
}

func (s *stubCatalog) Find(context.Context, *engine.Query) (*engine.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &engine.Result{Total: 3}, nil
}

func (s *stubCatalog) SuggestBrands(context.Context, string, int) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []string{"Acme"}, nil
}

func testConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestCatalog_PassesThroughWhenClosed(t *testing.T) {
	stub := &stubCatalog{}
	c := Wrap(stub, testConfig("test-pass"), logger.Discard())

	res, err := c.Find(context.Background(), &engine.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)

	names, err := c.SuggestBrands(context.Background(), "ac", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, names)
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestCatalog_TripsAndFailsFast(t *testing.T) {
	boom := errors.New("connection refused")
	stub := &stubCatalog{err: boom}
	c := Wrap(stub, testConfig("test-trip"), logger.Discard())

	for range 3 {
		_, err := c.Find(context.Background(), &engine.Query{})
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.Find(context.Background(), &engine.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, 503, apperrors.HTTPStatus(err))
	assert.Equal(t, 3, stub.calls, "open breaker must not reach the store")
}

func TestCatalog_CanceledRequestsDoNotTrip(t *testing.T) {
	stub := &stubCatalog{err: context.Canceled}
	c := Wrap(stub, testConfig("test-cancel"), logger.Discard())

	for range 5 {
		_, err := c.Find(context.Background(), &engine.Query{})
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestCatalog_RejectedQueriesDoNotTrip(t *testing.T) {
	rejected := fmt.Errorf("elasticsearch search: %w", apperrors.InvalidParameter("page", "exceeds the result window"))
	stub := &stubCatalog{err: rejected}
	c := Wrap(stub, testConfig("test-rejected"), logger.Discard())

	for range 5 {
		_, err := c.Find(context.Background(), &engine.Query{})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, 400, apperrors.HTTPStatus(err))
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
	assert.Equal(t, 5, stub.calls)
}

func TestCatalog_PingWithoutPinger(t *testing.T) {
	c := Wrap(&stubCatalog{}, testConfig("test-ping"), logger.Discard())
	assert.NoError(t, c.Ping(context.Background()))
}
