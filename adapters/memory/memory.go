// Package memory implements sheetsync.Store in process memory.
// It backs the "memory" server backend and the sheetsync tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/ideamans/go-sheetsync"
)

// Sheet is a snapshot of one tab
type Sheet struct {
	ID           int64
	Name         string
	Cells        [][]interface{}
	Header       *sheetsync.HeaderStyle // nil until FormatHeader runs
	HeaderWidth  int
	FrozenRows   int
	ColumnWidths []int // in characters, set by auto-resize
}

type document struct {
	sheets []*Sheet
	nextID int64
}

// Store is an in-memory implementation of sheetsync.Store
type Store struct {
	mu     sync.Mutex
	docs   map[string]*document
	denied map[string]bool

	// Error injection for testing
	OpenErr      error
	CreateTabErr error
	ClearErr     error
	WriteErr     error
	WriteErrTab  string // when set, WriteErr only applies to this tab
	FormatErr    error
	ReadErr      error
	FlushErr     error

	// CreateMissing makes Open create unknown documents instead of failing
	CreateMissing bool
}

// New creates an empty store
func New() *Store {
	return &Store{
		docs:   make(map[string]*document),
		denied: make(map[string]bool),
	}
}

// Seed creates a document with the given tabs
func (s *Store) Seed(id string, tabs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &document{}
	for _, name := range tabs {
		doc.add(name)
	}
	s.docs[id] = doc
}

// Deny makes Open fail with sheetsync.ErrAccessDenied for id
func (s *Store) Deny(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[id] = true
}

// Sheet returns a copy of the named tab
func (s *Store) Sheet(id, name string) (Sheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Sheet{}, false
	}
	sh := doc.find(name)
	if sh == nil {
		return Sheet{}, false
	}
	return sh.clone(), true
}

// Tabs returns the tab names of a document in creation order
func (s *Store) Tabs(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	names := make([]string, len(doc.sheets))
	for i, sh := range doc.sheets {
		names[i] = sh.Name
	}
	return names
}

// Open resolves a document by id
func (s *Store) Open(ctx context.Context, spreadsheetID string) (sheetsync.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	if s.denied[spreadsheetID] {
		return nil, fmt.Errorf("%w: %s", sheetsync.ErrAccessDenied, spreadsheetID)
	}
	if _, ok := s.docs[spreadsheetID]; !ok {
		if !s.CreateMissing {
			return nil, fmt.Errorf("%w: %s", sheetsync.ErrDocumentNotFound, spreadsheetID)
		}
		s.docs[spreadsheetID] = &document{}
	}

	return &Document{store: s, id: spreadsheetID}, nil
}

// Document is an opened in-memory spreadsheet
type Document struct {
	store *Store
	id    string
}

func (d *Document) ID() string {
	return d.id
}

func (d *Document) GetOrCreateTab(ctx context.Context, name string) (sheetsync.Tab, error) {
	doc, unlock, err := d.lock(ctx)
	if err != nil {
		return sheetsync.Tab{}, err
	}
	defer unlock()

	if sh := doc.find(name); sh != nil {
		return sheetsync.Tab{ID: sh.ID, Name: sh.Name}, nil
	}
	if d.store.CreateTabErr != nil {
		return sheetsync.Tab{}, d.store.CreateTabErr
	}

	sh := doc.add(name)
	return sheetsync.Tab{ID: sh.ID, Name: sh.Name}, nil
}

func (d *Document) Clear(ctx context.Context, tab sheetsync.Tab) error {
	doc, unlock, err := d.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if d.store.ClearErr != nil {
		return d.store.ClearErr
	}
	sh, err := doc.get(tab)
	if err != nil {
		return err
	}

	sh.Cells = nil
	sh.Header = nil
	sh.HeaderWidth = 0
	sh.FrozenRows = 0
	sh.ColumnWidths = nil
	return nil
}

// WriteRange overwrites the block at A1. Cells outside the block are kept.
func (d *Document) WriteRange(ctx context.Context, tab sheetsync.Tab, rows [][]interface{}) error {
	doc, unlock, err := d.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if d.store.WriteErr != nil && (d.store.WriteErrTab == "" || d.store.WriteErrTab == tab.Name) {
		return d.store.WriteErr
	}
	sh, err := doc.get(tab)
	if err != nil {
		return err
	}

	for i, row := range rows {
		for len(sh.Cells) <= i {
			sh.Cells = append(sh.Cells, nil)
		}
		for len(sh.Cells[i]) < len(row) {
			sh.Cells[i] = append(sh.Cells[i], "")
		}
		copy(sh.Cells[i], row)
	}
	return nil
}

func (d *Document) FormatHeader(ctx context.Context, tab sheetsync.Tab, columns int, style sheetsync.HeaderStyle) error {
	doc, unlock, err := d.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if d.store.FormatErr != nil {
		return d.store.FormatErr
	}
	sh, err := doc.get(tab)
	if err != nil {
		return err
	}

	sh.Header = &style
	sh.HeaderWidth = columns
	sh.FrozenRows = style.FrozenRows
	if style.AutoResize {
		sh.ColumnWidths = make([]int, columns)
		for _, row := range sh.Cells {
			for j := 0; j < columns && j < len(row); j++ {
				if n := utf8.RuneCountInString(sheetsync.CellString(row[j])); n > sh.ColumnWidths[j] {
					sh.ColumnWidths[j] = n
				}
			}
		}
	}
	return nil
}

func (d *Document) ReadRange(ctx context.Context, tab sheetsync.Tab) ([][]interface{}, error) {
	doc, unlock, err := d.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if d.store.ReadErr != nil {
		return nil, d.store.ReadErr
	}
	sh, err := doc.get(tab)
	if err != nil {
		return nil, err
	}
	return sh.clone().Cells, nil
}

func (d *Document) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	return d.store.FlushErr
}

func (d *Document) lock(ctx context.Context) (*document, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	d.store.mu.Lock()
	doc, ok := d.store.docs[d.id]
	if !ok {
		d.store.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", sheetsync.ErrDocumentNotFound, d.id)
	}
	return doc, d.store.mu.Unlock, nil
}

func (doc *document) add(name string) *Sheet {
	sh := &Sheet{ID: doc.nextID, Name: name}
	doc.nextID++
	doc.sheets = append(doc.sheets, sh)
	return sh
}

func (doc *document) find(name string) *Sheet {
	for _, sh := range doc.sheets {
		if sh.Name == name {
			return sh
		}
	}
	return nil
}

func (doc *document) get(tab sheetsync.Tab) (*Sheet, error) {
	for _, sh := range doc.sheets {
		if sh.ID == tab.ID {
			return sh, nil
		}
	}
	return nil, fmt.Errorf("tab %q (%d) not found", tab.Name, tab.ID)
}

func (sh *Sheet) clone() Sheet {
	c := *sh
	c.Cells = make([][]interface{}, len(sh.Cells))
	for i, row := range sh.Cells {
		c.Cells[i] = append([]interface{}(nil), row...)
	}
	if sh.Header != nil {
		h := *sh.Header
		c.Header = &h
	}
	c.ColumnWidths = append([]int(nil), sh.ColumnWidths...)
	return c
}
