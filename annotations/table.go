package annotations

import (
	"errors"
	"fmt"
	"sync"
)

// Table The UI table the annotation records are rendered into, one row per record
type Table interface {
	AppendRow(columns int) int
	RemoveRow(row int) error
	SetCell(row int, col int, text string) error
	Selected() int
	Select(row int)
	Rows() int
	Reset()
}

var ErrNoSuchCell = errors.New("no such table cell")

// MemoryTable A Table kept in memory, for headless sessions
type MemoryTable struct {
	mu       sync.RWMutex
	cells    [][]string
	selected int
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{selected: -1}
}

func (t *MemoryTable) AppendRow(columns int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cells = append(t.cells, make([]string, columns))
	return len(t.cells) - 1
}

// RemoveRow Remove a row; the selection follows its row or is cleared when it was removed
func (t *MemoryTable) RemoveRow(row int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row < 0 || row >= len(t.cells) {
		return fmt.Errorf("remove row %d of %d: %w", row, len(t.cells), ErrNoSuchCell)
	}
	t.cells = append(t.cells[:row], t.cells[row+1:]...)
	switch {
	case t.selected == row:
		t.selected = -1
	case t.selected > row:
		t.selected--
	}
	return nil
}

func (t *MemoryTable) SetCell(row int, col int, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row < 0 || row >= len(t.cells) || col < 0 || col >= len(t.cells[row]) {
		return fmt.Errorf("cell %d,%d: %w", row, col, ErrNoSuchCell)
	}
	t.cells[row][col] = text
	return nil
}

// Selected The selected row, -1 when there is none
func (t *MemoryTable) Selected() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selected
}

func (t *MemoryTable) Select(row int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = row
}

func (t *MemoryTable) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cells)
}

func (t *MemoryTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cells = nil
	t.selected = -1
}

// Cells A copy of the rendered table
func (t *MemoryTable) Cells() [][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cells := make([][]string, len(t.cells))
	for i, row := range t.cells {
		cells[i] = append([]string(nil), row...)
	}
	return cells
}
