package identity

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsledger/backend/internal/domain/entity"
)

// Matcher decides which ledger rows belong to a party.
type Matcher struct {
	aliases []string
	owner   bool
}

// NewMatcher builds the alias set of party: the full normalized name, every
// name token, the email handle, and the names of counterparties whose phone
// overlaps the party's own.
func NewMatcher(party entity.Party, counterparties []*entity.Counterparty) *Matcher {
	set := make(map[string]struct{})
	add := func(alias string) {
		if alias != "" {
			set[alias] = struct{}{}
		}
	}

	full := Normalize(party.DisplayName)
	add(full)
	for _, token := range strings.Fields(full) {
		if len([]rune(token)) >= MinAliasLength {
			add(token)
		}
	}

	if at := strings.Index(party.Email, "@"); at > 0 {
		handle := Normalize(party.Email[:at])
		if len([]rune(handle)) >= MinAliasLength {
			add(handle)
		}
	}

	if phone := CleanPhone(party.Phone); phone != "" {
		for _, c := range counterparties {
			if PhonesOverlap(phone, CleanPhone(c.Phone)) {
				add(Normalize(c.Name))
			}
		}
	}

	aliases := make([]string, 0, len(set))
	for a := range set {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return &Matcher{aliases: aliases, owner: party.IsOwner}
}

// Aliases returns the alias set, sorted.
func (m *Matcher) Aliases() []string {
	return append([]string(nil), m.aliases...)
}

// MatchesName reports whether a recorded counterparty name belongs to the party.
func (m *Matcher) MatchesName(name string) bool {
	n := Normalize(name)
	if n == "" {
		return false
	}
	for _, a := range m.aliases {
		if n == a {
			return true
		}
		if len([]rune(a)) < MinAliasLength {
			continue
		}
		if strings.Contains(n, a) || strings.Contains(a, n) {
			return true
		}
	}
	return false
}

// Matches reports whether a row belongs to the party. Internal rows never match.
func (m *Matcher) Matches(t *entity.Transaction) bool {
	if t.IsInternal() {
		return false
	}
	return m.MatchesName(t.CounterpartyName)
}

// Debts returns the party's pending rows, expenses excluded. Owners see none.
func (m *Matcher) Debts(rows []*entity.Transaction) []*entity.Transaction {
	return m.filter(rows, true)
}

// History returns the party's settled rows, expenses excluded. Owners see none.
func (m *Matcher) History(rows []*entity.Transaction) []*entity.Transaction {
	return m.filter(rows, false)
}

func (m *Matcher) filter(rows []*entity.Transaction, pending bool) []*entity.Transaction {
	if m.owner {
		return nil
	}
	var out []*entity.Transaction
	for _, t := range rows {
		if t.IsPending != pending || t.IsExpense() {
			continue
		}
		if m.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// TotalDebt sums the values of rows.
func TotalDebt(rows []*entity.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range rows {
		total = total.Add(t.Value)
	}
	return total
}

// Receipt is the set of rows sharing one exact timestamp: one order.
type Receipt struct {
	Timestamp time.Time
	Rows      []*entity.Transaction
	Total     decimal.Decimal
}

// DateGroup holds the receipts of one calendar day.
type DateGroup struct {
	Date     string
	Receipts []Receipt
	Total    decimal.Decimal
}

// GroupByDate groups rows by calendar day in loc, then by exact timestamp.
// Days and receipts are ordered newest first.
func GroupByDate(rows []*entity.Transaction, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.Local
	}

	byDay := make(map[string]map[int64][]*entity.Transaction)
	for _, t := range rows {
		local := t.Timestamp.In(loc)
		day := local.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = make(map[int64][]*entity.Transaction)
		}
		key := t.Timestamp.UnixNano()
		byDay[day][key] = append(byDay[day][key], t)
	}

	groups := make([]DateGroup, 0, len(byDay))
	for day, receipts := range byDay {
		g := DateGroup{Date: day, Total: decimal.Zero}
		for ts, items := range receipts {
			r := Receipt{Timestamp: time.Unix(0, ts).In(loc), Rows: items, Total: TotalDebt(items)}
			g.Receipts = append(g.Receipts, r)
			g.Total = g.Total.Add(r.Total)
		}
		sort.Slice(g.Receipts, func(i, j int) bool {
			return g.Receipts[i].Timestamp.After(g.Receipts[j].Timestamp)
		})
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}
