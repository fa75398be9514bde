package sheetsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// SuccessMessage is reported for every successful sync
const SuccessMessage = "Data synced successfully"

// Syncer replaces the contents of a spreadsheet tab with the rows of a request.
//
// Syncer is safe for concurrent use. Syncs of the same spreadsheet id are
// serialized; syncs of different documents run in parallel.
type Syncer struct {
	store  Store
	config Config
	logger *slog.Logger
	now    func() time.Time
	locks  *documentLocks
}

// Option configures a Syncer
type Option func(*Syncer)

// WithLogger sets the structured logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used for the Last Updated stamp
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithConfig replaces the default configuration. Zero fields keep their defaults.
func WithConfig(config Config) Option {
	return func(s *Syncer) {
		s.config = config.withDefaults()
	}
}

// New creates a Syncer writing through store
func New(store Store, opts ...Option) (*Syncer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	s := &Syncer{
		store:  store,
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
		locks:  newDocumentLocks(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return s, nil
}

// Config returns the effective configuration
func (s *Syncer) Config() Config {
	return s.config
}

// Sync runs the replace operation and reports the outcome. It never panics on
// store failures; every error is folded into a failed SyncResult.
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) SyncResult {
	start := s.now()
	if req.SheetName == "" {
		req.SheetName = s.config.DefaultSheetName
	}

	logger := s.logger.With(
		slog.String("spreadsheet_id", req.SpreadsheetID),
		slog.String("sheet", req.SheetName),
		slog.Int("rows", len(req.Rows)),
	)
	if id := RequestIDFrom(ctx); id != "" {
		logger = logger.With(slog.String("request_id", id))
	}

	if err := s.sync(ctx, req); err != nil {
		kind := KindOf(err)
		logger.Error("sync failed", slog.String("kind", string(kind)), slog.Any("error", err))
		return SyncResult{
			Success: false,
			Error:   err.Error(),
			Kind:    kind,
		}
	}

	logger.Info("sync completed", slog.Duration("duration", s.now().Sub(start)))
	return SyncResult{
		Success:     true,
		Message:     SuccessMessage,
		RowsWritten: req.DataRows(),
	}
}

func (s *Syncer) sync(ctx context.Context, req SyncRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.SheetName == s.config.MetadataSheet {
		return &Error{Kind: KindInvalidRequest, Op: "validate", Err: fmt.Errorf("sheetName %q is reserved", req.SheetName)}
	}

	unlock, err := s.locks.Lock(ctx, req.SpreadsheetID)
	if err != nil {
		return newError("lock document", err)
	}
	defer unlock()

	doc, err := s.store.Open(ctx, req.SpreadsheetID)
	if err != nil {
		return newError("open document", err)
	}

	tab, err := doc.GetOrCreateTab(ctx, req.SheetName)
	if err != nil {
		return writeError("resolve tab", err)
	}

	if err := doc.Clear(ctx, tab); err != nil {
		return writeError("clear tab", err)
	}

	if len(req.Rows) > 0 {
		if err := doc.WriteRange(ctx, tab, NormalizeRows(req.Rows)); err != nil {
			return writeError("write rows", err)
		}

		if err := doc.FormatHeader(ctx, tab, req.Width(), s.config.Header); err != nil {
			return writeError("format header", err)
		}
	}

	if err := s.writeMetadata(ctx, doc, req.DataRows()); err != nil {
		return err
	}

	if err := doc.Flush(ctx); err != nil {
		return writeError("flush document", err)
	}

	return nil
}

func (s *Syncer) writeMetadata(ctx context.Context, doc Document, rows int) error {
	tab, err := doc.GetOrCreateTab(ctx, s.config.MetadataSheet)
	if err != nil {
		return writeError("resolve metadata tab", err)
	}

	record := MetadataRecord{LastUpdated: s.now(), TotalRows: rows}
	if err := doc.WriteRange(ctx, tab, record.Rows(s.config.TimestampLayout)); err != nil {
		return writeError("write metadata", err)
	}

	return nil
}

// LastSync reads the metadata record of a document
func (s *Syncer) LastSync(ctx context.Context, spreadsheetID string) (MetadataRecord, error) {
	doc, err := s.store.Open(ctx, spreadsheetID)
	if err != nil {
		return MetadataRecord{}, newError("open document", err)
	}

	tab, err := doc.GetOrCreateTab(ctx, s.config.MetadataSheet)
	if err != nil {
		return MetadataRecord{}, writeError("resolve metadata tab", err)
	}

	rows, err := doc.ReadRange(ctx, tab)
	if err != nil {
		return MetadataRecord{}, writeError("read metadata", err)
	}

	record, ok := ParseMetadata(rows, s.config.TimestampLayout)
	if !ok {
		return MetadataRecord{}, &Error{Kind: KindDocumentNotFound, Op: "read metadata", Err: fmt.Errorf("no sync recorded for %s", spreadsheetID)}
	}

	return record, nil
}

// writeError wraps failures after the document was opened. Access errors keep
// their kind; everything else is a write failure.
func writeError(op string, err error) *Error {
	kind := KindOf(err)
	if kind != KindAccessDenied {
		kind = KindWriteFailed
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
