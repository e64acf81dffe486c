package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/application/adapter"
	"github.com/opsledger/backend/internal/application/resilience"
	"github.com/opsledger/backend/internal/domain/entity"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"  José ÁLVARES ", "jose alvares"},
		{"Conceição", "conceicao"},
		{"MARIA", "maria"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"+55 (21) 99999-8888", "21999998888"},
		{"5521999998888", "21999998888"},
		{"21999998888", "21999998888"},
		{"55999998888", "55999998888"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanPhone(tt.in); got != tt.expected {
			t.Errorf("CleanPhone(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestPhonesOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"identical", "21999998888", "21999998888", true},
		{"shorter contained", "999998888", "21999998888", true},
		{"symmetric", "21999998888", "999998888", true},
		{"eight digits", "99998888", "21999998888", true},
		{"seven digits never match", "9998888", "21999998888", false},
		{"different numbers", "21999998888", "21988887777", false},
		{"empty", "", "21999998888", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhonesOverlap(tt.a, tt.b); got != tt.expected {
				t.Errorf("PhonesOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestNewMatcher_Aliases(t *testing.T) {
	party := entity.Party{
		DisplayName: "Maria A. da Silva",
		Email:       "mariazinha@example.com",
		Phone:       "21 99999-8888",
	}
	counterparties := []*entity.Counterparty{
		{Name: "Dona Mary", Phone: "+55 21 99999-8888"},
		{Name: "Short Overlap", Phone: "9998888"},
		{Name: "Stranger", Phone: "21977776666"},
	}

	aliases := NewMatcher(party, counterparties).Aliases()

	for _, want := range []string{"maria a. da silva", "maria", "a.", "da", "silva", "mariazinha", "dona mary"} {
		if !contains(aliases, want) {
			t.Errorf("expected alias %q in %v", want, aliases)
		}
	}
	for _, unwanted := range []string{"short overlap", "stranger"} {
		if contains(aliases, unwanted) {
			t.Errorf("unexpected alias %q", unwanted)
		}
	}
}

func TestNewMatcher_RejectsShortTokens(t *testing.T) {
	aliases := NewMatcher(entity.Party{DisplayName: "J Souza", Email: "x@example.com"}, nil).Aliases()
	if contains(aliases, "j") {
		t.Error("expected single-letter token to be rejected")
	}
	if contains(aliases, "x") {
		t.Error("expected single-letter email handle to be rejected")
	}
}

func TestMatcher_MatchesName(t *testing.T) {
	m := NewMatcher(entity.Party{DisplayName: "Maria Silva"}, nil)

	tests := []struct {
		name     string
		recorded string
		expected bool
	}{
		{"exact", "Maria Silva", true},
		{"case and accents", "MARÍA SILVA", true},
		{"recorded contains alias", "Maria Silva Santos", true},
		{"alias contains recorded", "silv", true},
		{"single token", "maria", true},
		{"unrelated", "Joao Pereira", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.MatchesName(tt.recorded); got != tt.expected {
				t.Errorf("MatchesName(%q) = %v, want %v", tt.recorded, got, tt.expected)
			}
		})
	}
}

func TestMatcher_ShortAliasOnlyMatchesExactly(t *testing.T) {
	m := &Matcher{aliases: []string{"z"}}
	if m.MatchesName("zoe") {
		t.Error("expected a single-character alias to never match by substring")
	}
	if !m.MatchesName("Z") {
		t.Error("expected an exact match to still count")
	}
}

func row(name string, pending bool, sub string, ts time.Time) *entity.Transaction {
	method := entity.PaymentMethodImmediate
	if pending {
		method = entity.PaymentMethodDeferred
	}
	return &entity.Transaction{
		ID:               uuid.New(),
		Timestamp:        ts,
		Category:         "Snacks",
		SubCategory:      sub,
		Item:             "Coxinha",
		Value:            decimal.RequireFromString("10.00"),
		PaymentMethod:    method,
		CounterpartyName: name,
		IsPending:        pending,
	}
}

func TestMatcher_DebtsAndHistory(t *testing.T) {
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	debt := row("Maria Silva", true, entity.SubCategoryReceivable, ts)
	settled := row("maria", false, entity.SubCategorySales, ts)
	expense := row("Maria Silva", true, entity.SubCategoryExpenses, ts)
	other := row("Joao", true, entity.SubCategoryReceivable, ts)
	audit := row("Maria Silva", false, entity.SubCategoryEdit, ts)
	audit.Category = entity.CategoryAudit
	system := row("Maria Silva", true, entity.SubCategoryReceivable, ts)
	system.Category = entity.CategorySystem
	rows := []*entity.Transaction{debt, settled, expense, other, audit, system}

	m := NewMatcher(entity.Party{DisplayName: "Maria Silva"}, nil)

	debts := m.Debts(rows)
	if len(debts) != 1 || debts[0].ID != debt.ID {
		t.Errorf("expected only the receivable debt, got %d rows", len(debts))
	}
	history := m.History(rows)
	if len(history) != 1 || history[0].ID != settled.ID {
		t.Errorf("expected only the settled sale, got %d rows", len(history))
	}

	owner := NewMatcher(entity.Party{DisplayName: "Maria Silva", IsOwner: true}, nil)
	if len(owner.Debts(rows)) != 0 || len(owner.History(rows)) != 0 {
		t.Error("expected owners to get empty views")
	}
}

func TestGroupByDate(t *testing.T) {
	day1a := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	day1b := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	rows := []*entity.Transaction{
		row("m", true, "", day1a),
		row("m", true, "", day1a),
		row("m", true, "", day1b),
		row("m", true, "", day2),
	}

	groups := GroupByDate(rows, time.UTC)
	if len(groups) != 2 {
		t.Fatalf("expected 2 days, got %d", len(groups))
	}
	if groups[0].Date != "2026-03-10" || groups[1].Date != "2026-03-09" {
		t.Errorf("expected newest day first, got %s then %s", groups[0].Date, groups[1].Date)
	}
	receipts := groups[1].Receipts
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts on the first day, got %d", len(receipts))
	}
	if !receipts[0].Timestamp.Equal(day1b) {
		t.Error("expected the latest receipt first")
	}
	if len(receipts[1].Rows) != 2 || !receipts[1].Total.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("expected the shared timestamp to form one 20.00 receipt, got %d rows totalling %s",
			len(receipts[1].Rows), receipts[1].Total)
	}
	if !groups[1].Total.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("expected a day total of 30.00, got %s", groups[1].Total)
	}
}

func TestPhoneLinkedCounterpartyDebts(t *testing.T) {
	cp := &entity.Counterparty{Name: "Dona Maria", Phone: "5521999998888"}
	party := entity.Party{DisplayName: "Maria Fernanda", Phone: "21999998888"}
	d := row("Dona Maria", true, entity.SubCategoryReceivable, time.Now())

	out := NewGetPartyDebtsUseCase().Execute(PartyViewInput{
		Party:          party,
		Counterparties: []*entity.Counterparty{cp},
		Rows:           []*entity.Transaction{d},
		Location:       time.UTC,
	})
	if !contains(out.Aliases, "dona maria") {
		t.Errorf("expected the counterparty name among aliases, got %v", out.Aliases)
	}
	if len(out.Transactions) != 1 || out.Transactions[0].ID != d.ID {
		t.Error("expected the counterparty's debt in the party's debts")
	}
	if !out.Total.Equal(d.Value) {
		t.Errorf("expected total %s, got %s", d.Value, out.Total)
	}
}

type fakeCounterpartyRepo struct {
	adapter.CounterpartyRepository
	records []*entity.Counterparty
	err     error
	query   string
}

func (r *fakeCounterpartyRepo) FindByPhone(ctx context.Context, digits string) ([]*entity.Counterparty, error) {
	r.query = digits
	return r.records, r.err
}

type fakeTransactionRepo struct {
	adapter.TransactionRepository
	pending map[uuid.UUID][]*entity.Transaction
	calls   int
}

func (r *fakeTransactionRepo) FindPendingByCounterparty(ctx context.Context, tenantID uuid.UUID, name string) ([]*entity.Transaction, error) {
	r.calls++
	var out []*entity.Transaction
	for _, t := range r.pending[tenantID] {
		if t.CounterpartyName == name {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeMerger struct {
	merged []*entity.Transaction
}

func (m *fakeMerger) MergeRows(rows []*entity.Transaction) {
	m.merged = append(m.merged, rows...)
}

func TestSyncGlobalDebtsUseCase_Execute(t *testing.T) {
	storeA, storeB := uuid.New(), uuid.New()
	debtA := row("Dona Maria", true, entity.SubCategoryReceivable, time.Now())
	debtA.TenantID = storeA
	debtB := row("Maria F", true, entity.SubCategoryReceivable, time.Now())
	debtB.TenantID = storeB

	cps := &fakeCounterpartyRepo{records: []*entity.Counterparty{
		{TenantID: storeA, Name: "Dona Maria", Phone: "5521999998888"},
		{TenantID: storeA, Name: "Dona Maria", Phone: "21999998888"},
		{TenantID: storeB, Name: "Maria F", Phone: "(21) 99999-8888"},
		{TenantID: storeB, Name: "Someone Else", Phone: "2199999"},
	}}
	txs := &fakeTransactionRepo{pending: map[uuid.UUID][]*entity.Transaction{
		storeA: {debtA},
		storeB: {debtB},
	}}
	merger := &fakeMerger{}
	uc := NewSyncGlobalDebtsUseCase(txs, cps, resilience.Policy{MaxAttempts: 1})

	out, err := uc.Execute(context.Background(), merger, SyncGlobalDebtsInput{
		Party: entity.Party{DisplayName: "Maria Fernanda", Phone: "+55 21 99999-8888"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cps.query != "21999998888" {
		t.Errorf("expected the cleaned phone as query, got %q", cps.query)
	}
	if txs.calls != 2 {
		t.Errorf("expected one debt query per tenant and name, got %d", txs.calls)
	}
	if len(out.Debts) != 2 || len(merger.merged) != 2 {
		t.Errorf("expected 2 debts merged, got %d (%d merged)", len(out.Debts), len(merger.merged))
	}
	if len(out.Counterparties) != 3 {
		t.Errorf("expected 3 matching counterparty records, got %d", len(out.Counterparties))
	}
}

func TestSyncGlobalDebtsUseCase_ShortPhoneIsSkipped(t *testing.T) {
	cps := &fakeCounterpartyRepo{err: errors.New("must not be called")}
	uc := NewSyncGlobalDebtsUseCase(&fakeTransactionRepo{}, cps, resilience.Policy{MaxAttempts: 1})

	out, err := uc.Execute(context.Background(), &fakeMerger{}, SyncGlobalDebtsInput{Party: entity.Party{Phone: "1234567"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Debts) != 0 || cps.query != "" {
		t.Error("expected no lookup for a short phone")
	}
}
