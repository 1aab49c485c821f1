// payments.go implements payment-record access and id generation.
// All payment state transitions happen inside a Tx owned by the
// payment engine; this file only provides reads and identifiers.
package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/master-pd/marpd/internal/common"
)

// NewPaymentID generates a payment id that sorts by creation time:
// pay_20260829_153012_ab12cd34. The uuid suffix keeps two requests
// created within the same second distinguishable.
func NewPaymentID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("pay_%s_%s", at.Format("20060102_150405"), suffix)
}

// GetPayment returns a copy of the payment record.
func (s *Store) GetPayment(id string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, common.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

// PaymentsByUser returns the user's payments, newest first.
func (s *Store) PaymentsByUser(userID int64) []*Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// PendingPayments returns all PENDING records, oldest first, for the
// admin review queue.
func (s *Store) PendingPayments() []*Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Payment
	for _, p := range s.payments {
		if p.Status == PaymentPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
