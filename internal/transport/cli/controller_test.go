package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/service"
	"github.com/ivgord/stockfolio/internal/service/portfolioService"
)

type fakeService struct {
	registerErr error
	loginErr    error
	userID      int64

	portfolios []model.PortfolioSummary
	portfolio  model.Portfolio
	getErr     error

	createdParams portfolioService.CreatePortfolioParams
	added         []string
	skipped       []string
	removed       []string
	missing       []string
}

func (s *fakeService) Register(_ context.Context, _, _ string) (int64, error) {
	return s.userID, s.registerErr
}

func (s *fakeService) Login(_ context.Context, _, _ string) (int64, error) {
	return s.userID, s.loginErr
}

func (s *fakeService) CreatePortfolio(_ context.Context, _ int64, params portfolioService.CreatePortfolioParams) (model.Portfolio, error) {
	s.createdParams = params
	return model.Portfolio{Name: params.Name, DataType: model.Interday}, nil
}

func (s *fakeService) ListPortfolios(_ context.Context, _ int64) ([]model.PortfolioSummary, error) {
	return s.portfolios, nil
}

func (s *fakeService) GetPortfolio(_ context.Context, _ int64, _ string) (model.Portfolio, error) {
	return s.portfolio, s.getErr
}

func (s *fakeService) GetPortfolioData(_ context.Context, _ int64, _ string) (model.SeriesSet, error) {
	return model.SeriesSet{}, nil
}

func (s *fakeService) AddStocks(_ context.Context, _ int64, _ string, _ []string) ([]string, []string, error) {
	return s.added, s.skipped, nil
}

func (s *fakeService) RemoveStocks(_ context.Context, _ int64, _ string, _ []string) ([]string, []string, error) {
	return s.removed, s.missing, nil
}

func (s *fakeService) UpdateDateRange(_ context.Context, _ int64, _ string, _, _ time.Time) error {
	return nil
}

func (s *fakeService) DeletePortfolio(_ context.Context, _ int64, _ string) error {
	return nil
}

func (s *fakeService) ExportPortfolioReport(_ context.Context, _ int64, _ string) (string, error) {
	return "/tmp/report.xlsx", nil
}

func (s *fakeService) GetQuote(_ context.Context, _ string) (model.Quote, error) {
	return model.Quote{}, nil
}

func (s *fakeService) Account(_ context.Context, _ int64) (model.User, error) {
	return model.User{Username: "alice"}, nil
}

type fakeSessionStore struct {
	sessions map[string]model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]model.Session)}
}

func (s *fakeSessionStore) GetSession(_ context.Context, sessionID string) (model.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, nil
	}
	return sess, nil
}

func (s *fakeSessionStore) SetSession(_ context.Context, sessionID string, sess model.Session) error {
	s.sessions[sessionID] = sess
	return nil
}

func (s *fakeSessionStore) DeleteSession(_ context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func newTestController(svc PortfolioService, store SessionStore, input string) (*Controller, *bytes.Buffer) {
	out := &bytes.Buffer{}
	c := NewController(&config.Config{}, svc, store, "test-session", strings.NewReader(input), out)
	return c, out
}

func TestHandleRegister(t *testing.T) {
	svc := &fakeService{userID: 7}
	store := newFakeSessionStore()
	c, out := newTestController(svc, store, "Alice\nPassw0rd1\n")

	require.NoError(t, c.handleRegister(context.Background()))

	sess := store.sessions["test-session"]
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Contains(t, out.String(), "registered and logged in as alice")
}

func TestHandleLoginInvalidCredentials(t *testing.T) {
	svc := &fakeService{loginErr: service.ErrInvalidCredentials}
	store := newFakeSessionStore()
	c, out := newTestController(svc, store, "alice\nwrong\n")

	require.NoError(t, c.handleLogin(context.Background()))

	assert.Empty(t, store.sessions)
	assert.Contains(t, out.String(), "invalid username or password")
}

func TestHandleCreatePortfolioInterday(t *testing.T) {
	svc := &fakeService{}
	store := newFakeSessionStore()
	input := "tech\naapl, msft\n1d\n2023-11-01\n2023-11-15\n"
	c, out := newTestController(svc, store, input)

	require.NoError(t, c.handleCreatePortfolio(context.Background(), model.Session{UserID: 1}))

	assert.Equal(t, "tech", svc.createdParams.Name)
	assert.Equal(t, []string{"aapl", "msft"}, svc.createdParams.Tickers)
	assert.Equal(t, "1d", svc.createdParams.Interval)
	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), svc.createdParams.Start)
	assert.Contains(t, out.String(), `created portfolio "tech"`)
}

func TestHandleCreatePortfolioUnknownInterval(t *testing.T) {
	svc := &fakeService{}
	store := newFakeSessionStore()
	c, out := newTestController(svc, store, "tech\naapl\n7m\n")

	require.NoError(t, c.handleCreatePortfolio(context.Background(), model.Session{UserID: 1}))

	assert.Empty(t, svc.createdParams.Name)
	assert.Contains(t, out.String(), "unknown interval")
}

func TestHandleAddStocksReportsSkipped(t *testing.T) {
	svc := &fakeService{added: []string{"MSFT"}, skipped: []string{"AAPL"}}
	store := newFakeSessionStore()
	c, out := newTestController(svc, store, "tech\nmsft aapl\n")

	require.NoError(t, c.handleAddStocks(context.Background(), model.Session{UserID: 1}))

	assert.Contains(t, out.String(), "added: MSFT")
	assert.Contains(t, out.String(), "already present: AAPL")
}

func TestHandleAddStocksEmptyInput(t *testing.T) {
	svc := &fakeService{}
	store := newFakeSessionStore()
	c, out := newTestController(svc, store, "tech\n\n")

	require.NoError(t, c.handleAddStocks(context.Background(), model.Session{UserID: 1}))

	assert.Contains(t, out.String(), "no tickers given")
	assert.NotContains(t, out.String(), "already present")
}

func TestHandleDeletePortfolioCancelled(t *testing.T) {
	svc := &fakeService{}
	store := newFakeSessionStore()
	c, out := newTestController(svc, store, "tech\nn\n")

	require.NoError(t, c.handleDeletePortfolio(context.Background(), model.Session{UserID: 1}))
	assert.Contains(t, out.String(), "cancelled")
}

func TestRenderErrorUnknown(t *testing.T) {
	c, out := newTestController(&fakeService{}, newFakeSessionStore(), "")

	c.renderError(assert.AnError)
	assert.Contains(t, out.String(), "something went wrong")
}

func TestAppQuitsOnQ(t *testing.T) {
	svc := &fakeService{}
	store := newFakeSessionStore()
	c, _ := newTestController(svc, store, "q\n")

	app := NewApp(c)
	assert.NoError(t, app.Run(context.Background()))
}

func TestAppRegisterThenListThenQuit(t *testing.T) {
	svc := &fakeService{
		userID:     1,
		portfolios: []model.PortfolioSummary{{Name: "tech", DataType: model.Interday, Interval: "1d", StocksCount: 2}},
	}
	store := newFakeSessionStore()
	input := "1\nalice\nPassw0rd1\n2\nq\n"
	c, out := newTestController(svc, store, input)

	app := NewApp(c)
	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "registered and logged in as alice")
	assert.Contains(t, out.String(), "tech")
}
