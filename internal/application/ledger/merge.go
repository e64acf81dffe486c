package ledger

import (
	"sort"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
)

// mergeByID rebuilds a keyed view of base and incoming rows and flattens it
// back to a list ordered newest first. When both sides carry the same id the
// incoming row wins.
func mergeByID(base []*entity.Transaction, incoming ...*entity.Transaction) []*entity.Transaction {
	index := make(map[uuid.UUID]*entity.Transaction, len(base)+len(incoming))
	for _, t := range base {
		index[t.ID] = t
	}
	for _, t := range incoming {
		index[t.ID] = t
	}

	out := make([]*entity.Transaction, 0, len(index))
	for _, t := range index {
		out = append(out, t)
	}
	sortNewestFirst(out)
	return out
}

// removeByID returns rows without the listed ids. Order is preserved.
func removeByID(rows []*entity.Transaction, ids ...uuid.UUID) []*entity.Transaction {
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]*entity.Transaction, 0, len(rows))
	for _, t := range rows {
		if _, ok := drop[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// sortNewestFirst orders by timestamp descending. Equal timestamps fall back
// to the id so the order is stable across merges.
func sortNewestFirst(rows []*entity.Transaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.After(rows[j].Timestamp)
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
}

// preimage remembers the state of rows before an optimistic mutation.
// A nil entry means the row did not exist.
type preimage map[uuid.UUID]*entity.Transaction

func (p preimage) capture(rows []*entity.Transaction, ids ...uuid.UUID) {
	for _, id := range ids {
		if _, seen := p[id]; seen {
			continue
		}
		p[id] = nil
		for _, t := range rows {
			if t.ID == id {
				p[id] = t.Clone()
				break
			}
		}
	}
}

// restore puts every captured row back into rows, removing rows that did not exist.
func (p preimage) restore(rows []*entity.Transaction) []*entity.Transaction {
	var absent []uuid.UUID
	var present []*entity.Transaction
	for id, t := range p {
		if t == nil {
			absent = append(absent, id)
			continue
		}
		present = append(present, t)
	}
	return mergeByID(removeByID(rows, absent...), present...)
}
