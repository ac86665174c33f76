package feedback

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee   Role = "Employee"
	RoleClient     Role = "Client"
	RoleContractor Role = "Contractor"
)

type Type string

const (
	TypeComplaint Type = "Complaint"
	TypeProposal  Type = "Proposal"
)

type Department string

const (
	DepartmentHR           Department = "HR"
	DepartmentConstruction Department = "Construction"
	DepartmentFinance      Department = "Finance"
	DepartmentSupply       Department = "Supply"
	DepartmentOther        Department = "Other"
)

type Urgency string

const (
	UrgencyNormal Urgency = "Normal"
	UrgencyUrgent Urgency = "Urgent"
)

type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "InProgress"
	StatusResolved   Status = "Resolved"
	StatusRejected   Status = "Rejected"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// AnonymousMarker is the literal written in place of a name on the sheet
// and in CSV exports when the submitter chose to stay anonymous.
const AnonymousMarker = "Anonymous"

// AICommentAuthor labels comments appended by the assist gateway so the
// dashboard can tell them apart from admin comments.
const AICommentAuthor = "AI Assistant"

// DepartmentTables maps each department to the table that owns its
// collection. The mapping is fixed at compile time; every storage and
// sync path goes through it so a record can never land outside its
// department's table.
var DepartmentTables = map[Department]string{
	DepartmentHR:           "Artwin_HR_Feedback",
	DepartmentConstruction: "Artwin_Construction_Feedback",
	DepartmentFinance:      "Artwin_Finance_Feedback",
	DepartmentSupply:       "Artwin_Supply_Feedback",
	DepartmentOther:        "Artwin_General_Feedback",
}

// Departments returns every department in a stable order.
func Departments() []Department {
	return []Department{
		DepartmentHR,
		DepartmentConstruction,
		DepartmentFinance,
		DepartmentSupply,
		DepartmentOther,
	}
}

func ParseDepartment(s string) (Department, bool) {
	d := Department(s)
	_, ok := DepartmentTables[d]
	return d, ok
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNew, StatusInProgress, StatusResolved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

func NewComment(author, text string) Comment {
	return Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Analysis is an advisory AI enrichment. It never overrides the
// user-declared urgency.
type Analysis struct {
	Sentiment       string `json:"sentiment"`
	Summary         string `json:"summary"`
	SuggestedAction string `json:"suggestedAction"`
	UrgencyScore    int    `json:"urgencyScore"`
}

type Item struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Type       Type       `json:"type"`
	Department Department `json:"department"`
	Message    string     `json:"message"`
	Urgency    Urgency    `json:"urgency"`
	Status     Status     `json:"status"`
	CreatedAt  int64      `json:"createdAt"`

	IsAnonymous    bool   `json:"isAnonymous"`
	Name           string `json:"name,omitempty"`
	Contact        string `json:"contact,omitempty"`
	AttachmentName string `json:"attachmentName,omitempty"`

	Comments []Comment `json:"comments"`
	Analysis *Analysis `json:"aiAnalysis,omitempty"`
}

// Submission carries the fields collected by the intake form.
type Submission struct {
	Role           Role       `json:"role"`
	Type           Type       `json:"type"`
	Department     Department `json:"department"`
	Message        string     `json:"message"`
	Urgency        Urgency    `json:"urgency"`
	IsAnonymous    bool       `json:"isAnonymous"`
	Name           string     `json:"name"`
	Contact        string     `json:"contact"`
	AttachmentName string     `json:"attachmentName"`
}

var (
	ErrEmptyMessage      = errors.New("message is required")
	ErrUnknownRole       = errors.New("unknown role")
	ErrUnknownType       = errors.New("unknown feedback type")
	ErrUnknownDepartment = errors.New("unknown department")
	ErrUnknownUrgency    = errors.New("unknown urgency")
)

func (s Submission) Validate() error {
	if strings.TrimSpace(s.Message) == "" {
		return ErrEmptyMessage
	}
	switch s.Role {
	case RoleEmployee, RoleClient, RoleContractor:
	default:
		return ErrUnknownRole
	}
	switch s.Type {
	case TypeComplaint, TypeProposal:
	default:
		return ErrUnknownType
	}
	if _, ok := DepartmentTables[s.Department]; !ok {
		return ErrUnknownDepartment
	}
	switch s.Urgency {
	case UrgencyNormal, UrgencyUrgent:
	default:
		return ErrUnknownUrgency
	}
	return nil
}

// New builds a feedback item from a validated submission. Status starts
// at New and the comment thread starts empty. Anonymous submissions drop
// name and contact no matter what the form collected.
func New(s Submission) (Item, error) {
	if err := s.Validate(); err != nil {
		return Item{}, err
	}

	item := Item{
		ID:             uuid.NewString(),
		Role:           s.Role,
		Type:           s.Type,
		Department:     s.Department,
		Message:        s.Message,
		Urgency:        s.Urgency,
		Status:         StatusNew,
		CreatedAt:      time.Now().UnixMilli(),
		IsAnonymous:    s.IsAnonymous,
		AttachmentName: s.AttachmentName,
		Comments:       []Comment{},
	}

	if !s.IsAnonymous {
		item.Name = s.Name
		item.Contact = s.Contact
	}

	return item, nil
}

// DisplayName returns what external consumers (sheet, CSV, alerts) see
// in the name column.
func (i Item) DisplayName() string {
	if i.IsAnonymous {
		return AnonymousMarker
	}
	return i.Name
}

func (i Item) Sentiment() string {
	if i.Analysis == nil {
		return ""
	}
	return i.Analysis.Sentiment
}
