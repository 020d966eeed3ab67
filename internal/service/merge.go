package service

import "github.com/google/uuid"

type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// MergeItems folds items sharing a product id into one entry whose quantity is
// the sum. Entries keep the position of their first appearance.
func MergeItems(items []ItemInput) []ItemInput {
	merged := make([]ItemInput, 0, len(items))
	pos := make(map[uuid.UUID]int, len(items))

	for _, it := range items {
		if i, ok := pos[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged
}
