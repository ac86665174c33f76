package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/notify"
	"github.com/artwin/feedback-hub/internal/sheets"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func item(id string, dept feedback.Department, createdAt int64) feedback.Item {
	return feedback.Item{
		ID:         id,
		Role:       feedback.RoleEmployee,
		Type:       feedback.TypeComplaint,
		Department: dept,
		Message:    "message " + id,
		Urgency:    feedback.UrgencyNormal,
		Status:     feedback.StatusNew,
		CreatedAt:  createdAt,
		Comments:   []feedback.Comment{},
	}
}

func TestInitSchemaSeedsEmptyCollections(t *testing.T) {
	c := testClient(t)

	for _, dept := range feedback.Departments() {
		items, err := c.GetByDepartment(dept)
		require.NoError(t, err)
		assert.Empty(t, items)
	}

	// repeated init must not clobber data
	require.NoError(t, c.Append(item("keep", feedback.DepartmentHR, 1)))
	require.NoError(t, c.InitSchema())

	items, err := c.GetByDepartment(feedback.DepartmentHR)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestAppendInsertsAtHead(t *testing.T) {
	c := testClient(t)

	require.NoError(t, c.Append(item("old", feedback.DepartmentHR, 1)))
	require.NoError(t, c.Append(item("new", feedback.DepartmentHR, 2)))

	items, err := c.GetByDepartment(feedback.DepartmentHR)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, "old", items[1].ID)
	assert.Equal(t, feedback.StatusNew, items[0].Status)
	assert.Empty(t, items[0].Comments)
}

func TestCollectionsAreIndependent(t *testing.T) {
	c := testClient(t)

	require.NoError(t, c.Append(item("hr-1", feedback.DepartmentHR, 1)))
	require.NoError(t, c.Append(item("fin-1", feedback.DepartmentFinance, 2)))

	hr, err := c.GetByDepartment(feedback.DepartmentHR)
	require.NoError(t, err)
	require.Len(t, hr, 1)
	assert.Equal(t, "hr-1", hr[0].ID)

	fin, err := c.GetByDepartment(feedback.DepartmentFinance)
	require.NoError(t, err)
	require.Len(t, fin, 1)
	assert.Equal(t, "fin-1", fin[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("a", feedback.DepartmentSupply, 1)))

	require.NoError(t, c.UpdateStatus(feedback.DepartmentSupply, "a", feedback.StatusResolved))

	items, _ := c.GetByDepartment(feedback.DepartmentSupply)
	assert.Equal(t, feedback.StatusResolved, items[0].Status)
}

func TestUpdateStatusUnknownIDIsNoOp(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("a", feedback.DepartmentSupply, 1)))

	before, _ := c.GetByDepartment(feedback.DepartmentSupply)
	require.NoError(t, c.UpdateStatus(feedback.DepartmentSupply, "missing", feedback.StatusRejected))
	after, _ := c.GetByDepartment(feedback.DepartmentSupply)

	assert.Equal(t, before, after)
}

func TestAppendCommentPreservesOrder(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("a", feedback.DepartmentHR, 1)))

	first := feedback.Comment{ID: "c1", Author: "HR Admin", Text: "looking into it", Timestamp: 10}
	second := feedback.Comment{ID: "c2", Author: "HR Admin", Text: "resolved", Timestamp: 20}

	require.NoError(t, c.AppendComment(feedback.DepartmentHR, "a", first))
	require.NoError(t, c.AppendComment(feedback.DepartmentHR, "a", second))

	items, _ := c.GetByDepartment(feedback.DepartmentHR)
	require.Len(t, items[0].Comments, 2)
	assert.Equal(t, "c1", items[0].Comments[0].ID)
	assert.Equal(t, "c2", items[0].Comments[1].ID)
}

func TestAppendCommentUnknownIDIsNoOp(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("a", feedback.DepartmentHR, 1)))

	require.NoError(t, c.AppendComment(feedback.DepartmentHR, "missing", feedback.Comment{ID: "c1"}))

	items, _ := c.GetByDepartment(feedback.DepartmentHR)
	assert.Empty(t, items[0].Comments)
}

func TestSetAnalysisOverwrites(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("a", feedback.DepartmentOther, 1)))

	require.NoError(t, c.SetAnalysis(feedback.DepartmentOther, "a", feedback.Analysis{Sentiment: feedback.SentimentNegative, UrgencyScore: 8}))
	require.NoError(t, c.SetAnalysis(feedback.DepartmentOther, "a", feedback.Analysis{Sentiment: feedback.SentimentPositive, UrgencyScore: 2}))

	items, _ := c.GetByDepartment(feedback.DepartmentOther)
	require.NotNil(t, items[0].Analysis)
	assert.Equal(t, feedback.SentimentPositive, items[0].Analysis.Sentiment)
}

func TestReplaceAll(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("stale", feedback.DepartmentFinance, 1)))

	fresh := []feedback.Item{item("r1", feedback.DepartmentFinance, 5), item("r2", feedback.DepartmentFinance, 4)}
	require.NoError(t, c.ReplaceAll(feedback.DepartmentFinance, fresh))

	items, _ := c.GetByDepartment(feedback.DepartmentFinance)
	require.Len(t, items, 2)
	assert.Equal(t, "r1", items[0].ID)
}

func TestAllSortsNewestFirst(t *testing.T) {
	c := testClient(t)
	require.NoError(t, c.Append(item("oldest", feedback.DepartmentHR, 1)))
	require.NoError(t, c.Append(item("newest", feedback.DepartmentFinance, 3)))
	require.NoError(t, c.Append(item("middle", feedback.DepartmentSupply, 2)))

	all, err := c.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "newest", all[0].ID)
	assert.Equal(t, "middle", all[1].ID)
	assert.Equal(t, "oldest", all[2].ID)
}

func TestSheetConfigRoundTrip(t *testing.T) {
	c := testClient(t)

	_, ok, err := c.GetSheetConfig(feedback.DepartmentHR)
	require.NoError(t, err)
	assert.False(t, ok)

	cfg := sheets.Config{SheetID: "sheet-1", TabName: "Feedback", AccessToken: "tok"}
	require.NoError(t, c.SaveSheetConfig(feedback.DepartmentHR, cfg))

	got, ok, err := c.GetSheetConfig(feedback.DepartmentHR)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg, got)

	require.NoError(t, c.DeleteSheetConfig(feedback.DepartmentHR))
	_, ok, _ = c.GetSheetConfig(feedback.DepartmentHR)
	assert.False(t, ok)
}

func TestTelegramConfigRoundTrip(t *testing.T) {
	c := testClient(t)

	_, ok, err := c.GetTelegramConfig()
	require.NoError(t, err)
	assert.False(t, ok)

	cfg := notify.Config{BotToken: "bot-token", ChatID: "-100123"}
	require.NoError(t, c.SaveTelegramConfig(cfg))

	got, ok, err := c.GetTelegramConfig()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg, got)
}
