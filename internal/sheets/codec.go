package sheets

import (
	"time"

	"github.com/artwin/feedback-hub/internal/feedback"
)

// Column layout, shared by encodeRow and decodeRow:
// id, ISO timestamp, role, type, department, message, urgency, status,
// name-or-Anonymous, contact, sentiment.

func encodeRow(item feedback.Item) []string {
	return []string{
		item.ID,
		time.UnixMilli(item.CreatedAt).UTC().Format(time.RFC3339),
		string(item.Role),
		string(item.Type),
		string(item.Department),
		item.Message,
		string(item.Urgency),
		string(item.Status),
		item.DisplayName(),
		item.Contact,
		item.Sentiment(),
	}
}

// decodeRow maps a row back to an item. Rows without an id are dropped.
// Comments have no sheet representation and always come back empty; a
// non-empty sentiment column rehydrates a stub analysis.
func decodeRow(row []string, dept feedback.Department) (feedback.Item, bool) {
	id := cell(row, 0)
	if id == "" {
		return feedback.Item{}, false
	}

	createdAt := time.Now().UnixMilli()
	if ts, err := time.Parse(time.RFC3339, cell(row, 1)); err == nil {
		createdAt = ts.UnixMilli()
	}

	item := feedback.Item{
		ID:         id,
		CreatedAt:  createdAt,
		Role:       parseRole(cell(row, 2)),
		Type:       parseType(cell(row, 3)),
		Department: parseDepartment(cell(row, 4), dept),
		Message:    cell(row, 5),
		Urgency:    parseUrgency(cell(row, 6)),
		Status:     parseStatus(cell(row, 7)),
		Comments:   []feedback.Comment{},
	}

	name := cell(row, 8)
	if name == feedback.AnonymousMarker {
		item.IsAnonymous = true
	} else {
		item.Name = name
		item.Contact = cell(row, 9)
	}

	if sentiment := cell(row, 10); sentiment != "" {
		item.Analysis = &feedback.Analysis{
			Sentiment:    sentiment,
			UrgencyScore: 5,
		}
	}

	return item, true
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseRole(s string) feedback.Role {
	switch feedback.Role(s) {
	case feedback.RoleEmployee, feedback.RoleClient, feedback.RoleContractor:
		return feedback.Role(s)
	}
	return feedback.RoleEmployee
}

func parseType(s string) feedback.Type {
	switch feedback.Type(s) {
	case feedback.TypeComplaint, feedback.TypeProposal:
		return feedback.Type(s)
	}
	return feedback.TypeComplaint
}

func parseDepartment(s string, fallback feedback.Department) feedback.Department {
	if dept, ok := feedback.ParseDepartment(s); ok {
		return dept
	}
	return fallback
}

func parseUrgency(s string) feedback.Urgency {
	if feedback.Urgency(s) == feedback.UrgencyUrgent {
		return feedback.UrgencyUrgent
	}
	return feedback.UrgencyNormal
}

func parseStatus(s string) feedback.Status {
	if status, ok := feedback.ParseStatus(s); ok {
		return status
	}
	return feedback.StatusNew
}
