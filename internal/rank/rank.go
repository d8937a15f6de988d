// Package rank keeps the display order of an ordered sibling collection
// dense: for n siblings the ranks are exactly 0..n-1.
package rank

import (
	"quix/internal/domain"
)

// Ranked is an element whose rank the manager may rewrite
type Ranked interface {
	GetRank() int
	SetRank(rank int)
}

// Insert appends item at the end of siblings. The item receives rank
// len(siblings), so repeated inserts against the returned slice yield
// count, count+1, ... in call order.
func Insert[T Ranked](siblings []T, item T) []T {
	item.SetRank(len(siblings))
	return append(siblings, item)
}

// Delete removes the sibling at removedRank and closes the gap: every
// sibling ranked after it moves up by one. The removed item is returned.
func Delete[T Ranked](siblings []T, removedRank int) ([]T, T, error) {
	var zero T
	if removedRank < 0 || removedRank >= len(siblings) {
		return siblings, zero, &domain.RankNotFoundError{Rank: removedRank, Count: len(siblings)}
	}

	removed := siblings[removedRank]
	result := make([]T, 0, len(siblings)-1)
	result = append(result, siblings[:removedRank]...)
	result = append(result, siblings[removedRank+1:]...)
	Renumber(result)

	return result, removed, nil
}

// Reorder removes the sibling at fromRank and reinserts it at index toRank
// of the remaining sequence, then renumbers. Moving earlier and moving later
// follow the same remove-then-insert rule.
func Reorder[T Ranked](siblings []T, fromRank, toRank int) ([]T, error) {
	if fromRank < 0 || fromRank >= len(siblings) {
		return siblings, &domain.RankNotFoundError{Rank: fromRank, Count: len(siblings)}
	}
	if toRank < 0 || toRank >= len(siblings) {
		return siblings, &domain.RankNotFoundError{Rank: toRank, Count: len(siblings)}
	}

	item := siblings[fromRank]
	rest := make([]T, 0, len(siblings))
	rest = append(rest, siblings[:fromRank]...)
	rest = append(rest, siblings[fromRank+1:]...)

	result := make([]T, 0, len(siblings))
	result = append(result, rest[:toRank]...)
	result = append(result, item)
	result = append(result, rest[toRank:]...)
	Renumber(result)

	return result, nil
}

// Renumber assigns ranks 0..n-1 following slice order
func Renumber[T Ranked](siblings []T) {
	for i, s := range siblings {
		if s.GetRank() != i {
			s.SetRank(i)
		}
	}
}
