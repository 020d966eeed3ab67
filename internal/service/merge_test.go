package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMergeItems(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name string
		in   []ItemInput
		want []ItemInput
	}{
		{
			name: "sums duplicates",
			in:   []ItemInput{{p1, 2}, {p1, 3}, {p2, 1}},
			want: []ItemInput{{p1, 5}, {p2, 1}},
		},
		{
			name: "keeps first appearance order",
			in:   []ItemInput{{p2, 1}, {p1, 1}, {p2, 4}, {p3, 2}},
			want: []ItemInput{{p2, 5}, {p1, 1}, {p3, 2}},
		},
		{
			name: "no duplicates",
			in:   []ItemInput{{p1, 1}, {p2, 2}},
			want: []ItemInput{{p1, 1}, {p2, 2}},
		},
		{
			name: "empty",
			in:   nil,
			want: []ItemInput{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeItems(tt.in))
		})
	}
}

func TestMergeItems_OrderIndependentTotals(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	a := MergeItems([]ItemInput{{p1, 2}, {p2, 1}, {p1, 3}})
	b := MergeItems([]ItemInput{{p2, 1}, {p1, 3}, {p1, 2}})

	totals := func(items []ItemInput) map[uuid.UUID]int {
		m := map[uuid.UUID]int{}
		for _, it := range items {
			m[it.ProductID] = it.Quantity
		}
		return m
	}
	assert.Equal(t, totals(a), totals(b))
}
