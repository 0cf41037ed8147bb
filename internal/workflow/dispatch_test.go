package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/types"
)

type fakeSession struct {
	closed   int
	closeErr error
}

func (f *fakeSession) Goto(context.Context, string) error                 { return nil }
func (f *fakeSession) Act(context.Context, string) error                  { return nil }
func (f *fakeSession) Extract(context.Context, string, string, any) error { return nil }
func (f *fakeSession) Observe(context.Context, string) ([]browser.Candidate, error) {
	return nil, nil
}
func (f *fakeSession) WaitForPDF(context.Context, time.Duration) ([]byte, string, error) {
	return nil, "", nil
}
func (f *fakeSession) DownloadURL(context.Context, string) ([]byte, error) { return nil, nil }
func (f *fakeSession) Close() error {
	f.closed++
	return f.closeErr
}

type fakeProvider struct {
	session    *fakeSession
	acquireErr error
	acquired   int
}

func (f *fakeProvider) Acquire(context.Context) (browser.Session, error) {
	f.acquired++
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return f.session, nil
}

func testJob() *types.Job {
	return &types.Job{
		ID: "job-1",
		Credential: types.Credential{
			Username: "jdoe",
			Password: "hunter2",
			LoginURL: "https://portal.abacus.net/login",
		},
		PeriodStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDispatch_UnknownCarrierNeverAcquiresSession(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{}}
	d := NewDispatcher(provider, Registry{}, nil)

	res := d.Dispatch(context.Background(), carrier.Unknown, testJob())

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "Unknown carrier for URL: https://portal.abacus.net/login")
	assert.Zero(t, provider.acquired)
}

func TestDispatch_NoRoutineRegistered(t *testing.T) {
	sess := &fakeSession{}
	provider := &fakeProvider{session: sess}
	d := NewDispatcher(provider, Registry{}, nil)

	res := d.Dispatch(context.Background(), carrier.Sentinel, testJob())

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "No workflow implemented for carrier: com_sentinel")
	// Session was acquired for a recognized slug and must still be released.
	assert.Equal(t, 1, provider.acquired)
	assert.Equal(t, 1, sess.closed)
}

func TestDispatch_AcquireFailure(t *testing.T) {
	provider := &fakeProvider{acquireErr: errors.New("no browser available")}
	d := NewDispatcher(provider, Registry{
		carrier.Abacus: func(context.Context, browser.Session, *types.Job) (*Result, error) {
			t.Fatal("routine must not run when acquisition fails")
			return nil, nil
		},
	}, nil)

	res := d.Dispatch(context.Background(), carrier.Abacus, testJob())

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "Failed to execute workflow: no browser available")
}

func TestDispatch_SuccessReleasesSession(t *testing.T) {
	sess := &fakeSession{}
	provider := &fakeProvider{session: sess}
	stmts := []Statement{ByReference("2024-05-15", "https://portal.abacus.net/stmt.pdf")}
	d := NewDispatcher(provider, Registry{
		carrier.Abacus: func(context.Context, browser.Session, *types.Job) (*Result, error) {
			return Successful(stmts), nil
		},
	}, nil)

	res := d.Dispatch(context.Background(), carrier.Abacus, testJob())

	require.True(t, res.Success)
	assert.Equal(t, stmts, res.Statements)
	assert.Equal(t, 1, sess.closed)
}

func TestDispatch_RoutineErrorIsNormalized(t *testing.T) {
	sess := &fakeSession{}
	provider := &fakeProvider{session: sess}
	d := NewDispatcher(provider, Registry{
		carrier.Abacus: func(context.Context, browser.Session, *types.Job) (*Result, error) {
			return nil, errors.New("selector vanished")
		},
	}, nil)

	res := d.Dispatch(context.Background(), carrier.Abacus, testJob())

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "Failed to execute workflow: selector vanished")
	assert.Equal(t, 1, sess.closed)
}

func TestDispatch_RoutinePanicIsNormalized(t *testing.T) {
	sess := &fakeSession{}
	provider := &fakeProvider{session: sess}
	d := NewDispatcher(provider, Registry{
		carrier.Abacus: func(context.Context, browser.Session, *types.Job) (*Result, error) {
			panic("nil dereference in carrier script")
		},
	}, nil)

	res := d.Dispatch(context.Background(), carrier.Abacus, testJob())

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "Failed to execute workflow: nil dereference in carrier script")
	assert.Equal(t, 1, sess.closed, "session must be released after a panic")
}

func TestDispatch_ReleaseFailureDoesNotOverrideResult(t *testing.T) {
	sess := &fakeSession{closeErr: errors.New("browser already gone")}
	provider := &fakeProvider{session: sess}
	d := NewDispatcher(provider, Registry{
		carrier.Abacus: func(context.Context, browser.Session, *types.Job) (*Result, error) {
			return Successful(nil), nil
		},
	}, nil)

	res := d.Dispatch(context.Background(), carrier.Abacus, testJob())

	assert.True(t, res.Success)
}

func TestDispatch_FailureResultDropsStatements(t *testing.T) {
	sess := &fakeSession{}
	provider := &fakeProvider{session: sess}
	d := NewDispatcher(provider, Registry{
		carrier.Abacus: func(context.Context, browser.Session, *types.Job) (*Result, error) {
			return &Result{
				Success:    false,
				Err:        "login failed",
				Statements: []Statement{ByReference("2024-05-15", "u")},
			}, nil
		},
	}, nil)

	res := d.Dispatch(context.Background(), carrier.Abacus, testJob())

	assert.False(t, res.Success)
	assert.Empty(t, res.Statements)
}
