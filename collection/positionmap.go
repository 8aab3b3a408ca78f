package collection

// PositionMap maps every live item to its ordinal position. It is only
// correct if every structural mutation of the owning collection calls
// InsertIntoMap / RemoveFromMap in lock-step.
type PositionMap[C comparable] struct {
	positions map[C]int
}

func NewPositionMap[C comparable]() *PositionMap[C] {
	return &PositionMap[C]{
		positions: map[C]int{},
	}
}

// InsertIntoMap records item at position, shifting every item at or after
// position one slot to the right.
func (m *PositionMap[C]) InsertIntoMap(item C, position int) {
	for other, p := range m.positions {
		if p >= position {
			m.positions[other] = p + 1
		}
	}
	m.positions[item] = position
}

// RemoveFromMap forgets item and closes the gap it leaves.
func (m *PositionMap[C]) RemoveFromMap(item C) {
	position, ok := m.positions[item]
	if !ok {
		return
	}
	delete(m.positions, item)
	for other, p := range m.positions {
		if p > position {
			m.positions[other] = p - 1
		}
	}
}

// ReplaceInMap puts item at the position old occupied.
func (m *PositionMap[C]) ReplaceInMap(old, item C) {
	position, ok := m.positions[old]
	if !ok {
		return
	}
	delete(m.positions, old)
	m.positions[item] = position
}

// Rebuild discards every entry and maps items in slice order.
func (m *PositionMap[C]) Rebuild(items []C) {
	clear(m.positions)
	for i, item := range items {
		m.positions[item] = i
	}
}

func (m *PositionMap[C]) PositionOf(item C) (int, bool) {
	p, ok := m.positions[item]
	return p, ok
}

func (m *PositionMap[C]) Len() int {
	return len(m.positions)
}

func (m *PositionMap[C]) Clear() {
	clear(m.positions)
}
