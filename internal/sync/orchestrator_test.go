package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/notify"
	"github.com/artwin/feedback-hub/internal/sheets"
)

// fakeStore is an in-memory Store so orchestrator tests never touch
// disk or network.
type fakeStore struct {
	collections map[feedback.Department][]feedback.Item
	sheetCfgs   map[feedback.Department]sheets.Config
	telegramCfg *notify.Config
	appendErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: map[feedback.Department][]feedback.Item{},
		sheetCfgs:   map[feedback.Department]sheets.Config{},
	}
}

func (s *fakeStore) GetByDepartment(dept feedback.Department) ([]feedback.Item, error) {
	return s.collections[dept], nil
}

func (s *fakeStore) Append(item feedback.Item) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.collections[item.Department] = append([]feedback.Item{item}, s.collections[item.Department]...)
	return nil
}

func (s *fakeStore) UpdateStatus(dept feedback.Department, id string, status feedback.Status) error {
	for i := range s.collections[dept] {
		if s.collections[dept][i].ID == id {
			s.collections[dept][i].Status = status
		}
	}
	return nil
}

func (s *fakeStore) AppendComment(dept feedback.Department, id string, comment feedback.Comment) error {
	for i := range s.collections[dept] {
		if s.collections[dept][i].ID == id {
			s.collections[dept][i].Comments = append(s.collections[dept][i].Comments, comment)
		}
	}
	return nil
}

func (s *fakeStore) SetAnalysis(dept feedback.Department, id string, analysis feedback.Analysis) error {
	for i := range s.collections[dept] {
		if s.collections[dept][i].ID == id {
			s.collections[dept][i].Analysis = &analysis
		}
	}
	return nil
}

func (s *fakeStore) ReplaceAll(dept feedback.Department, items []feedback.Item) error {
	s.collections[dept] = items
	return nil
}

func (s *fakeStore) All() ([]feedback.Item, error) {
	var all []feedback.Item
	for _, dept := range feedback.Departments() {
		all = append(all, s.collections[dept]...)
	}
	return all, nil
}

func (s *fakeStore) GetSheetConfig(dept feedback.Department) (sheets.Config, bool, error) {
	cfg, ok := s.sheetCfgs[dept]
	return cfg, ok, nil
}

func (s *fakeStore) GetTelegramConfig() (notify.Config, bool, error) {
	if s.telegramCfg == nil {
		return notify.Config{}, false, nil
	}
	return *s.telegramCfg, true, nil
}

type fakeSheet struct {
	fetchResult []feedback.Item
	appendErr   error
	appended    []feedback.Item
}

func (f *fakeSheet) AppendRow(ctx context.Context, cfg sheets.Config, item feedback.Item) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, item)
	return nil
}

func (f *fakeSheet) FetchAll(ctx context.Context, cfg sheets.Config, dept feedback.Department) []feedback.Item {
	return f.fetchResult
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NewFeedbackAlert(ctx context.Context, cfg notify.Config, item feedback.Item) error {
	return m.Called(ctx, cfg, item).Error(0)
}

func (m *mockNotifier) Report(ctx context.Context, cfg notify.Config, dept feedback.Department, text string) error {
	return m.Called(ctx, cfg, dept, text).Error(0)
}

func dualBackend(store *fakeStore, dept feedback.Department) {
	store.sheetCfgs[dept] = sheets.Config{SheetID: "s", TabName: "t", AccessToken: "a"}
}

func TestLoadRemoteWinsWholesale(t *testing.T) {
	store := newFakeStore()
	dualBackend(store, feedback.DepartmentHR)
	store.collections[feedback.DepartmentHR] = []feedback.Item{{ID: "local-only"}}

	remote := []feedback.Item{{ID: "r1"}, {ID: "r2"}}
	o := NewOrchestrator(store, &fakeSheet{fetchResult: remote}, &mockNotifier{})

	items, err := o.Load(context.Background(), feedback.DepartmentHR)
	require.NoError(t, err)
	assert.Equal(t, remote, items)

	// the local-only item is discarded, remote is ground truth
	assert.Equal(t, remote, store.collections[feedback.DepartmentHR])
}

func TestLoadFallsBackToLocalOnEmptyFetch(t *testing.T) {
	store := newFakeStore()
	dualBackend(store, feedback.DepartmentHR)
	local := []feedback.Item{{ID: "keep-me"}}
	store.collections[feedback.DepartmentHR] = local

	o := NewOrchestrator(store, &fakeSheet{}, &mockNotifier{})

	items, err := o.Load(context.Background(), feedback.DepartmentHR)
	require.NoError(t, err)
	assert.Equal(t, local, items)
	assert.Equal(t, local, store.collections[feedback.DepartmentHR])
}

func TestLoadLocalOnlyMode(t *testing.T) {
	store := newFakeStore()
	local := []feedback.Item{{ID: "a"}}
	store.collections[feedback.DepartmentSupply] = local

	sheet := &fakeSheet{fetchResult: []feedback.Item{{ID: "never-fetched"}}}
	o := NewOrchestrator(store, sheet, &mockNotifier{})

	items, err := o.Load(context.Background(), feedback.DepartmentSupply)
	require.NoError(t, err)
	assert.Equal(t, local, items)
}

func TestCreateWritesLocalThenSheet(t *testing.T) {
	store := newFakeStore()
	dualBackend(store, feedback.DepartmentFinance)
	sheet := &fakeSheet{}

	item := feedback.Item{ID: "n1", Department: feedback.DepartmentFinance, Type: feedback.TypeComplaint}
	o := NewOrchestrator(store, sheet, &mockNotifier{})

	require.NoError(t, o.Create(context.Background(), item))
	assert.Equal(t, "n1", store.collections[feedback.DepartmentFinance][0].ID)
	require.Len(t, sheet.appended, 1)
	assert.Equal(t, "n1", sheet.appended[0].ID)
}

func TestCreateSurvivesSheetFailure(t *testing.T) {
	store := newFakeStore()
	dualBackend(store, feedback.DepartmentFinance)
	sheet := &fakeSheet{appendErr: sheets.ErrRemoteWrite}

	item := feedback.Item{ID: "n2", Department: feedback.DepartmentFinance, Type: feedback.TypeComplaint}
	o := NewOrchestrator(store, sheet, &mockNotifier{})

	require.NoError(t, o.Create(context.Background(), item))
	assert.Equal(t, "n2", store.collections[feedback.DepartmentFinance][0].ID)
}

func TestCreateFailsWhenLocalWriteFails(t *testing.T) {
	store := newFakeStore()
	store.appendErr = errors.New("disk full")

	o := NewOrchestrator(store, &fakeSheet{}, &mockNotifier{})
	err := o.Create(context.Background(), feedback.Item{ID: "x", Department: feedback.DepartmentHR, Type: feedback.TypeProposal})
	assert.Error(t, err)
}

func TestCreateSendsAlertWhenConfigured(t *testing.T) {
	store := newFakeStore()
	store.telegramCfg = &notify.Config{BotToken: "t", ChatID: "1"}

	notifier := new(mockNotifier)
	notifier.On("NewFeedbackAlert", mock.Anything, *store.telegramCfg, mock.Anything).Return(nil)

	o := NewOrchestrator(store, &fakeSheet{}, notifier)
	item := feedback.Item{ID: "n3", Department: feedback.DepartmentHR, Type: feedback.TypeProposal}
	require.NoError(t, o.Create(context.Background(), item))
	notifier.AssertExpectations(t)
}

func TestCreateSwallowsAlertFailure(t *testing.T) {
	store := newFakeStore()
	store.telegramCfg = &notify.Config{BotToken: "t", ChatID: "1"}

	notifier := new(mockNotifier)
	notifier.On("NewFeedbackAlert", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("telegram down"))

	o := NewOrchestrator(store, &fakeSheet{}, notifier)
	item := feedback.Item{ID: "n4", Department: feedback.DepartmentHR, Type: feedback.TypeComplaint}
	require.NoError(t, o.Create(context.Background(), item))
}

func TestRecordAnalysisAppendsSystemComment(t *testing.T) {
	store := newFakeStore()
	store.collections[feedback.DepartmentHR] = []feedback.Item{{ID: "a1"}}

	o := NewOrchestrator(store, &fakeSheet{}, &mockNotifier{})
	analysis := feedback.Analysis{Sentiment: feedback.SentimentNegative, Summary: "s", SuggestedAction: "escalate", UrgencyScore: 7}

	require.NoError(t, o.RecordAnalysis(context.Background(), feedback.DepartmentHR, "a1", analysis))

	item := store.collections[feedback.DepartmentHR][0]
	require.NotNil(t, item.Analysis)
	assert.Equal(t, analysis, *item.Analysis)
	require.Len(t, item.Comments, 1)
	assert.Equal(t, feedback.AICommentAuthor, item.Comments[0].Author)
	assert.Contains(t, item.Comments[0].Text, "escalate")
}

func TestSendReportRequiresConfig(t *testing.T) {
	o := NewOrchestrator(newFakeStore(), &fakeSheet{}, &mockNotifier{})
	err := o.SendReport(context.Background(), feedback.DepartmentHR, "report")
	assert.Error(t, err)
}

func TestSendReportDelivers(t *testing.T) {
	store := newFakeStore()
	store.telegramCfg = &notify.Config{BotToken: "t", ChatID: "1"}

	notifier := new(mockNotifier)
	notifier.On("Report", mock.Anything, *store.telegramCfg, feedback.DepartmentFinance, "quarterly mood").Return(nil)

	o := NewOrchestrator(store, &fakeSheet{}, notifier)
	require.NoError(t, o.SendReport(context.Background(), feedback.DepartmentFinance, "quarterly mood"))
	notifier.AssertExpectations(t)
}
