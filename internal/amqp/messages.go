package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys of the budget exchange.
const (
	RoutingBudgetSaved      = "budget.saved"
	RoutingMonthlyMovements = "movements.monthly"
)

// BudgetSavedMessage announces that a budget document was persisted.
// Consumers load the document themselves.
type BudgetSavedMessage struct {
	BudgetID  string    `json:"budget_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetSavedMessage(id, name string) *BudgetSavedMessage {
	return &BudgetSavedMessage{
		BudgetID:  id,
		Name:      name,
		Timestamp: time.Now(),
	}
}

func (m *BudgetSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetSavedMessageFromJSON(data []byte) (*BudgetSavedMessage, error) {
	var msg BudgetSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BudgetID == "" {
		return nil, fmt.Errorf("budget saved message without budget_id")
	}
	return &msg, nil
}

// Movement is one payment due in the month of a MonthlyMovementsMessage.
type Movement struct {
	EntryID       string  `json:"entry_id"`
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	Fee           float64 `json:"fee"`
	PaymentMethod string  `json:"payment_method"`
	Period        int     `json:"payment_period"`
}

// MonthlyMovementsMessage lists the payments leaving an account in one month.
type MonthlyMovementsMessage struct {
	BudgetID   string     `json:"budget_id"`
	BudgetName string     `json:"budget_name"`
	Account    string     `json:"account"`
	Month      int        `json:"month"`
	Total      float64    `json:"total"`
	Movements  []Movement `json:"movements"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (m *MonthlyMovementsMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthlyMovementsMessageFromJSON(data []byte) (*MonthlyMovementsMessage, error) {
	var msg MonthlyMovementsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Month < 1 || msg.Month > 12 {
		return nil, fmt.Errorf("movements message with month %d", msg.Month)
	}
	return &msg, nil
}
