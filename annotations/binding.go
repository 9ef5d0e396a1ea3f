package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"brainbox/models"
	"brainbox/utils"
)

type BindingMode int

const (
	// OneWay Cells display the formatted value and cannot be edited
	OneWay BindingMode = 1
	// TwoWay Cell edits are parsed and written back on the next flush
	TwoWay BindingMode = 2
)

// Placeholder Stands for the record index in a column path
const Placeholder = "#"

var (
	ErrReadOnlyCell = errors.New("cell is bound one-way")
	ErrInvalidValue = errors.New("invalid cell value")
)

// Column A binding descriptor linking a record field to a table column
type Column struct {
	TypeOfBinding BindingMode `json:"typeOfBinding"`
	Path          string      `json:"path"`
	Format        string      `json:"format"`
	Parse         string      `json:"parse,omitempty"`
}

// Resolve The path of this column for the record at index
func (c Column) Resolve(index int) string {
	return strings.Replace(c.Path, Placeholder, strconv.Itoa(index), 1)
}

type Columns []Column

// ColumnsFromConfig Convert the configured descriptors
func ColumnsFromConfig(config []utils.Column) Columns {
	columns := make(Columns, len(config))
	for i, c := range config {
		columns[i] = Column{
			TypeOfBinding: BindingMode(c.TypeOfBinding),
			Path:          c.Path,
			Format:        c.Format,
			Parse:         c.Parse,
		}
	}
	return columns
}

type binding struct {
	path   string
	mode   BindingMode
	format Formatter
	parse  Parser
}

type edit struct {
	path  string
	value interface{}
}

// Binder Keeps table rows and records in sync.
// Edits made in two-way cells stay pending until Flush writes them into the metadata.
type Binder struct {
	table   Table
	columns Columns
	bound   map[int][]binding
	pending []edit
}

func NewBinder(table Table, columns Columns) *Binder {
	return &Binder{
		table:   table,
		columns: columns,
		bound:   make(map[int][]binding),
	}
}

// Bind Bind every column of the record at index to the table row of the same index and render it
func (b *Binder) Bind(info *models.Image, index int) error {
	doc, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("bind record %d: %w", index, err)
	}

	bindings := make([]binding, len(b.columns))
	for col, column := range b.columns {
		bindings[col] = binding{
			path:   column.Resolve(index),
			mode:   column.TypeOfBinding,
			format: formatter(column.Format),
		}
		if column.TypeOfBinding == TwoWay {
			bindings[col].parse = parser(column.Parse)
		}
	}
	b.bound[index] = bindings
	return b.render(doc, index)
}

// Unbind Tear down the bindings of the record at index, dropping its pending edits
func (b *Binder) Unbind(index int) {
	bindings, ok := b.bound[index]
	if !ok {
		return
	}
	delete(b.bound, index)

	paths := make(map[string]bool, len(bindings))
	for _, bd := range bindings {
		paths[bd.path] = true
	}
	pending := b.pending[:0]
	for _, e := range b.pending {
		if !paths[e.path] {
			pending = append(pending, e)
		}
	}
	b.pending = pending
}

// Rebind Bind again every record from index on, after records moved
func (b *Binder) Rebind(info *models.Image, from int) error {
	for index := range b.bound {
		if index >= from {
			b.Unbind(index)
		}
	}
	for index := from; index < len(info.Atlas); index++ {
		if err := b.Bind(info, index); err != nil {
			return err
		}
	}
	return nil
}

// Edit Accept text typed into a cell. The parsed value is pending until the next Flush.
func (b *Binder) Edit(row int, col int, text string) error {
	bindings, ok := b.bound[row]
	if !ok || col < 0 || col >= len(bindings) {
		return fmt.Errorf("edit cell %d,%d: %w", row, col, ErrNoSuchCell)
	}
	bd := bindings[col]
	if bd.mode != TwoWay {
		return fmt.Errorf("edit cell %d,%d: %w", row, col, ErrReadOnlyCell)
	}
	value, err := bd.parse(text)
	if err != nil {
		return fmt.Errorf("edit cell %d,%d: %w: %s", row, col, ErrInvalidValue, err.Error())
	}

	replaced := false
	for i := range b.pending {
		if b.pending[i].path == bd.path {
			b.pending[i].value = value
			replaced = true
		}
	}
	if !replaced {
		b.pending = append(b.pending, edit{path: bd.path, value: value})
	}
	return b.table.SetCell(row, col, text)
}

// Pending Number of edits not yet flushed
func (b *Binder) Pending() int {
	return len(b.pending)
}

// Flush Write pending edits into info and render the bound rows again
func (b *Binder) Flush(info *models.Image) error {
	if len(b.pending) == 0 {
		return nil
	}
	doc, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("flush edits: %w", err)
	}
	for _, e := range b.pending {
		doc, err = sjson.SetBytes(doc, e.path, e.value)
		if err != nil {
			return fmt.Errorf("flush edit of %s: %w", e.path, err)
		}
	}
	if err := info.ApplyJSON(doc); err != nil {
		return err
	}
	b.pending = nil

	for index := range b.bound {
		if err := b.render(doc, index); err != nil {
			return err
		}
	}
	return nil
}

// Reset Forget every binding and pending edit
func (b *Binder) Reset() {
	b.bound = make(map[int][]binding)
	b.pending = nil
}

func (b *Binder) render(doc []byte, index int) error {
	for col, bd := range b.bound[index] {
		text := bd.format(gjson.GetBytes(doc, bd.path))
		if err := b.table.SetCell(index, col, text); err != nil {
			return err
		}
	}
	return nil
}
