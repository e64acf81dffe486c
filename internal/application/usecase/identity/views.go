package identity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// PartyViewInput represents the input for the party's debt and history views.
type PartyViewInput struct {
	Party          entity.Party
	Counterparties []*entity.Counterparty
	Rows           []*entity.Transaction
	Location       *time.Location
}

// PartyViewOutput represents a filtered, grouped view of the ledger.
type PartyViewOutput struct {
	Aliases      []string
	Transactions []*entity.Transaction
	Groups       []DateGroup
	Total        decimal.Decimal
}

// GetPartyDebtsUseCase builds the party's pending debt view.
type GetPartyDebtsUseCase struct{}

// NewGetPartyDebtsUseCase creates a new GetPartyDebtsUseCase instance.
func NewGetPartyDebtsUseCase() *GetPartyDebtsUseCase {
	return &GetPartyDebtsUseCase{}
}

// Execute builds the view.
func (uc *GetPartyDebtsUseCase) Execute(input PartyViewInput) *PartyViewOutput {
	m := NewMatcher(input.Party, input.Counterparties)
	return buildView(m, m.Debts(input.Rows), input.Location)
}

// GetPartyHistoryUseCase builds the party's settled history view.
type GetPartyHistoryUseCase struct{}

// NewGetPartyHistoryUseCase creates a new GetPartyHistoryUseCase instance.
func NewGetPartyHistoryUseCase() *GetPartyHistoryUseCase {
	return &GetPartyHistoryUseCase{}
}

// Execute builds the view.
func (uc *GetPartyHistoryUseCase) Execute(input PartyViewInput) *PartyViewOutput {
	m := NewMatcher(input.Party, input.Counterparties)
	return buildView(m, m.History(input.Rows), input.Location)
}

func buildView(m *Matcher, rows []*entity.Transaction, loc *time.Location) *PartyViewOutput {
	return &PartyViewOutput{
		Aliases:      m.Aliases(),
		Transactions: rows,
		Groups:       GroupByDate(rows, loc),
		Total:        TotalDebt(rows),
	}
}
