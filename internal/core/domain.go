package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "receita"
	Expense TransactionType = "despesa"
)

const (
	StatusPending   TransactionStatus = "pendente"
	StatusCompleted TransactionStatus = "concluida"
	StatusCancelled TransactionStatus = "cancelada"
)

const (
	SavingInProgress SavingStatus = "em_andamento"
	SavingCompleted  SavingStatus = "concluida"
	SavingCancelled  SavingStatus = "cancelada"
)

const (
	RoleAdmin   Role = "admin"
	RoleVisitor Role = "visitante"
)

type (
	TransactionType   string
	TransactionStatus string
	SavingStatus      string
	Role              string

	// Date is a calendar date on the wire. The API emits either plain
	// "2006-01-02" or a full RFC 3339 timestamp depending on the endpoint.
	Date struct {
		time.Time
	}

	// Transaction is a remotely-owned record; the client never mutates one
	// in place, every change is a round trip followed by a refetch.
	Transaction struct {
		ID           int64             `json:"id"`
		Description  string            `json:"description"`
		Amount       Cents             `json:"amount"`
		Type         TransactionType   `json:"type"`
		Category     string            `json:"category"`
		Date         Date              `json:"date"`
		Status       TransactionStatus `json:"status,omitempty"`
		Observations string            `json:"observations,omitempty"`
		UserID       int64             `json:"userId,omitempty"`
	}

	Saving struct {
		ID            int64        `json:"id"`
		Name          string       `json:"name"`
		TargetAmount  Cents        `json:"targetAmount"`
		CurrentAmount Cents        `json:"currentAmount"`
		Deadline      Date         `json:"deadline"`
		Category      string       `json:"category"`
		Status        SavingStatus `json:"status,omitempty"`
		Description   string       `json:"description,omitempty"`
	}

	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
		Role  Role   `json:"role,omitempty"`
		Photo string `json:"photo,omitempty"`
	}

	// Settings is the remote profile's settings sub-object. UpdatedAt is
	// optional on the wire; when present it drives last-writer-wins
	// reconciliation of the display mode.
	Settings struct {
		EmailNotifications bool       `json:"emailNotifications"`
		MonthlyReport      bool       `json:"monthlyReport"`
		DarkMode           bool       `json:"darkMode"`
		Language           string     `json:"language"`
		UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
	}

	Profile struct {
		User
		Settings *Settings `json:"settings,omitempty"`
	}

	TransactionStats struct {
		TotalIncome    Cents `json:"totalIncome"`
		TotalExpense   Cents `json:"totalExpense"`
		Balance        Cents `json:"balance"`
		MonthlyIncome  Cents `json:"monthlyIncome"`
		MonthlyExpense Cents `json:"monthlyExpense"`
		MonthlyBalance Cents `json:"monthlyBalance"`
	}

	SavingStats struct {
		TotalTarget  Cents `json:"totalTarget"`
		TotalCurrent Cents `json:"totalCurrent"`
		InProgress   int   `json:"inProgress"`
		Completed    int   `json:"completed"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
)

// dateLayouts are tried in order when decoding a wire date.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return ErrInvalidDate
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// Validate performs the client-side checks that must pass before a
// transaction form is allowed to reach the network.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate mirrors the transaction checks for the savings-goal form.
func (s Saving) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if s.Deadline.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Progress returns the goal completion percentage, clamped to [0, 100].
func (s Saving) Progress() int {
	if s.TargetAmount <= 0 {
		return 0
	}
	p := int(int64(s.CurrentAmount) * 100 / int64(s.TargetAmount))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}

// IsAdmin reports whether the user may access admin-gated views.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
