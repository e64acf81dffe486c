package entity

import "github.com/google/uuid"

// ChangeKind is the row-level operation carried by a change event.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// ChangeTable names the collection a change event belongs to.
type ChangeTable string

const (
	TableTransactions   ChangeTable = "transactions"
	TableConfiguration  ChangeTable = "configuration"
	TableCounterparties ChangeTable = "counterparties"
)

// ChangeEvent is a row-level notification delivered by the push channel.
// Exactly one of the row fields is set, matching Table. Delete events only
// need RowID.
type ChangeEvent struct {
	Table        ChangeTable
	Kind         ChangeKind
	TenantID     uuid.UUID
	RowID        uuid.UUID
	Transaction  *Transaction
	Pool         *InventoryPool
	Counterparty *Counterparty
}
