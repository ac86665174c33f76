package feedback

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVHeaderAndRowCount(t *testing.T) {
	items := []Item{
		{ID: "a", Role: RoleEmployee, Type: TypeComplaint, Department: DepartmentHR, Message: "first", Urgency: UrgencyNormal, Status: StatusNew, CreatedAt: 2000},
		{ID: "b", Role: RoleClient, Type: TypeProposal, Department: DepartmentFinance, Message: "second", Urgency: UrgencyUrgent, Status: StatusResolved, CreatedAt: 1000},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(out[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CSVHeader, records[0])
	assert.Equal(t, "a", records[1][0])
	assert.Equal(t, "b", records[2][0])
}

func TestWriteCSVEscapesQuotes(t *testing.T) {
	items := []Item{
		{ID: "q", Role: RoleEmployee, Type: TypeComplaint, Department: DepartmentOther,
			Message: `he said "no" and left`, Urgency: UrgencyNormal, Status: StatusNew},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	assert.Contains(t, buf.String(), `"he said ""no"" and left"`)
}

func TestWriteCSVAnonymousName(t *testing.T) {
	items := []Item{
		{ID: "x", Role: RoleContractor, Type: TypeComplaint, Department: DepartmentSupply,
			Message: "late delivery", Urgency: UrgencyNormal, Status: StatusNew,
			IsAnonymous: true, Name: "should not appear"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	s := buf.String()
	assert.Contains(t, s, AnonymousMarker)
	assert.False(t, strings.Contains(s, "should not appear"))
}
