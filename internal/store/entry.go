package store

import (
	"fmt"

	"github.com/roach88/timelockidx/internal/ir"
)

// Kind names the command an entry records.
type Kind string

const (
	KindSchedule      Kind = "schedule"
	KindScheduleBatch Kind = "schedule_batch"
	KindCancel        Kind = "cancel"
	KindExecute       Kind = "execute"
	KindExecuteBatch  Kind = "execute_batch"
	KindUpdateDelay   Kind = "update_delay"
	KindGrantRole     Kind = "grant_role"
	KindRevokeRole    Kind = "revoke_role"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSchedule, KindScheduleBatch, KindCancel, KindExecute, KindExecuteBatch,
		KindUpdateDelay, KindGrantRole, KindRevokeRole:
		return true
	}
	return false
}

// HasIdentity reports whether entries of kind k concern one operation or batch.
func (k Kind) HasIdentity() bool {
	switch k {
	case KindUpdateDelay, KindGrantRole, KindRevokeRole:
		return false
	}
	return true
}

// Entry is one accepted command.
//
// Seq is assigned by the store on append and is zero on entries that have not
// been written. At is the engine clock reading (unix seconds) when the command
// was applied; replay pins the clock to it.
type Entry struct {
	Seq            int64
	ID             string
	Kind           Kind
	Caller         ir.Address
	Identity       ir.Identity
	Payload        string
	At             int64
	JournalVersion string
}

// NewScheduleEntry records a scheduled single operation.
func NewScheduleEntry(id string, caller ir.Address, op ir.Operation, at int64) (Entry, error) {
	return newOperationEntry(KindSchedule, id, caller, op, at)
}

// NewExecuteEntry records an executed single operation.
func NewExecuteEntry(id string, caller ir.Address, op ir.Operation, at int64) (Entry, error) {
	return newOperationEntry(KindExecute, id, caller, op, at)
}

// NewScheduleBatchEntry records a scheduled batch.
func NewScheduleBatchEntry(id string, caller ir.Address, b ir.OperationBatch, at int64) (Entry, error) {
	return newBatchEntry(KindScheduleBatch, id, caller, b, at)
}

// NewExecuteBatchEntry records an executed batch.
func NewExecuteBatchEntry(id string, caller ir.Address, b ir.OperationBatch, at int64) (Entry, error) {
	return newBatchEntry(KindExecuteBatch, id, caller, b, at)
}

// NewCancelEntry records a cancellation of identity.
func NewCancelEntry(id string, caller ir.Address, identity ir.Identity, at int64) Entry {
	return Entry{
		ID:             id,
		Kind:           KindCancel,
		Caller:         caller,
		Identity:       identity,
		Payload:        "{}",
		At:             at,
		JournalVersion: ir.JournalVersion,
	}
}

// NewUpdateDelayEntry records a minimum delay change to delaySeconds.
func NewUpdateDelayEntry(id string, caller ir.Address, delaySeconds int64, at int64) (Entry, error) {
	payload, err := marshalDelay(delaySeconds)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:             id,
		Kind:           KindUpdateDelay,
		Caller:         caller,
		Payload:        payload,
		At:             at,
		JournalVersion: ir.JournalVersion,
	}, nil
}

// NewRoleEntry records a grant_role or revoke_role of role for account.
func NewRoleEntry(kind Kind, id string, caller ir.Address, role string, account ir.Address, at int64) (Entry, error) {
	if kind != KindGrantRole && kind != KindRevokeRole {
		return Entry{}, fmt.Errorf("role entry: kind %s is not a role change", kind)
	}
	payload, err := marshalRole(role, account)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:             id,
		Kind:           kind,
		Caller:         caller,
		Payload:        payload,
		At:             at,
		JournalVersion: ir.JournalVersion,
	}, nil
}

func newOperationEntry(kind Kind, id string, caller ir.Address, op ir.Operation, at int64) (Entry, error) {
	payload, err := marshalOperation(op)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:             id,
		Kind:           kind,
		Caller:         caller,
		Identity:       ir.HashOperation(op),
		Payload:        payload,
		At:             at,
		JournalVersion: ir.JournalVersion,
	}, nil
}

func newBatchEntry(kind Kind, id string, caller ir.Address, b ir.OperationBatch, at int64) (Entry, error) {
	payload, err := marshalBatch(b)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:             id,
		Kind:           kind,
		Caller:         caller,
		Identity:       ir.HashOperationBatch(b),
		Payload:        payload,
		At:             at,
		JournalVersion: ir.JournalVersion,
	}, nil
}

// Operation decodes the payload of a schedule or execute entry.
func (e Entry) Operation() (ir.Operation, error) {
	if e.Kind != KindSchedule && e.Kind != KindExecute {
		return ir.Operation{}, fmt.Errorf("entry %s: kind %s has no operation", e.ID, e.Kind)
	}
	return unmarshalOperation(e.Payload)
}

// Batch decodes the payload of a schedule_batch or execute_batch entry.
func (e Entry) Batch() (ir.OperationBatch, error) {
	if e.Kind != KindScheduleBatch && e.Kind != KindExecuteBatch {
		return ir.OperationBatch{}, fmt.Errorf("entry %s: kind %s has no batch", e.ID, e.Kind)
	}
	return unmarshalBatch(e.Payload)
}

// DelaySeconds decodes the payload of an update_delay entry.
func (e Entry) DelaySeconds() (int64, error) {
	if e.Kind != KindUpdateDelay {
		return 0, fmt.Errorf("entry %s: kind %s has no delay", e.ID, e.Kind)
	}
	return unmarshalDelay(e.Payload)
}

// RoleChange decodes the payload of a grant_role or revoke_role entry.
func (e Entry) RoleChange() (role string, account ir.Address, err error) {
	if e.Kind != KindGrantRole && e.Kind != KindRevokeRole {
		return "", ir.Address{}, fmt.Errorf("entry %s: kind %s has no role change", e.ID, e.Kind)
	}
	return unmarshalRole(e.Payload)
}
