package store

import (
	"context"
	"fmt"
	"math"
)

// NextSiblingOrder returns the p_order a new child of (chatID, parentID)
// should receive: 0 when the parent has no children, otherwise one past
// the highest existing order. Always computed from a fresh read; orders
// left by deleted siblings stay burned, they are never reused.
func (s *Store) NextSiblingOrder(ctx context.Context, chatID string, parentID *string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(p_order) + 1, 0) FROM messages
		 WHERE chat_id = ? AND parent_msg_id IS ?`,
		chatID, nullable(parentID)).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("computing next sibling order: %w", err)
	}
	return next, nil
}

// MessageIndex computes the fractional msg_index for a message with the
// given parent index and sibling order. Roots (nil parent index) get 1.
// Children land at parent + 10^-(order+1), so every child sorts strictly
// after its parent, later siblings get strictly smaller increments, and
// existing siblings never need renumbering when one more is appended.
//
// Known scaling limit: beyond roughly order 15 the float64 increment
// underflows and distinct siblings collapse to the same index. Sibling
// fan-out that large does not occur in practice.
func MessageIndex(parentIndex *float64, order int) float64 {
	if parentIndex == nil {
		return 1
	}
	return *parentIndex + 1/math.Pow(10, float64(order+1))
}
