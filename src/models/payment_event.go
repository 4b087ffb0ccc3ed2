package models

import (
	"tourops/src/types"
)

// PaymentEvent records every gateway outcome already applied, keyed by
// (order_ref, status). The gateway delivers webhooks at-least-once; the
// unique index is what keeps markPaid at-most-once.
type PaymentEvent struct {
	ID       uint                     `gorm:"primarykey" json:"id"`
	OrderRef string                   `gorm:"uniqueIndex:idx_payment_events_ref_status" json:"order_ref,omitempty"`
	Status   types.PaymentEventStatus `gorm:"uniqueIndex:idx_payment_events_ref_status" json:"status,omitempty"`
	Payload  *types.JSONB             `gorm:"type:jsonb" json:"-"`

	types.Timestamps
}
