package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/rowstore/internal/grid"
	"github.com/JonMunkholm/rowstore/internal/schema"
)

// Config wires a Service. Zero fields take defaults.
type Config struct {
	// IDs generates ids for records created without one (default: UUIDGenerator).
	IDs IDGenerator

	// Limiter bounds concurrent writes (default: one writer, DefaultMaxWaitTime).
	Limiter *WriteLimiter

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time

	// Audit receives a record of every mutation (default: SlogAudit).
	Audit AuditSink
}

// Service is the row-store engine over one workbook.
type Service struct {
	wb      grid.Workbook
	ids     IDGenerator
	limiter *WriteLimiter
	now     func() time.Time
	auditor AuditSink
}

// NewService creates a Service over wb.
func NewService(wb grid.Workbook, cfg Config) *Service {
	s := &Service{
		wb:      wb,
		ids:     cfg.IDs,
		limiter: cfg.Limiter,
		now:     cfg.Clock,
		auditor: cfg.Audit,
	}
	if s.ids == nil {
		s.ids = UUIDGenerator
	}
	if s.limiter == nil {
		s.limiter = NewWriteLimiter(DefaultMaxConcurrentWrites, DefaultMaxWaitTime)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.auditor == nil {
		s.auditor = SlogAudit
	}
	return s
}

// Ping checks that the backing workbook is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.wb.Ping(ctx)
}

// Close releases the workbook.
func (s *Service) Close() error {
	return s.wb.Close()
}

// WriteLimiterStatus returns the write limiter state.
func (s *Service) WriteLimiterStatus() WriteLimiterStatus {
	return s.limiter.Status()
}

// WaitForWrites blocks until in-flight writes finish or ctx is done.
func (s *Service) WaitForWrites(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ListTables returns table names in position order.
func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	names, err := s.wb.Sheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// sheet resolves a table name. An empty name selects the first sheet.
func (s *Service) sheet(ctx context.Context, name string) (grid.Sheet, error) {
	if name == "" {
		sh, err := s.wb.First(ctx)
		if errors.Is(err, grid.ErrSheetNotFound) {
			return nil, newError(ErrTableNotFound, "Workbook has no sheets")
		}
		if err != nil {
			return nil, fmt.Errorf("first sheet: %w", err)
		}
		return sh, nil
	}

	sh, err := s.wb.Sheet(ctx, name)
	if errors.Is(err, grid.ErrSheetNotFound) {
		return nil, newError(ErrTableNotFound, `Sheet "%s" not found`, name)
	}
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", name, err)
	}
	return sh, nil
}

// loadSchema reads the header row and the recorded column types.
func (s *Service) loadSchema(ctx context.Context, sh grid.Sheet) (*schema.Schema, error) {
	lastCol, err := sh.LastColumn(ctx)
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", sh.Name(), err)
	}

	types, err := sh.ColumnTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("read column types of %s: %w", sh.Name(), err)
	}

	if lastCol == 0 {
		return schema.Resolve(nil, types), nil
	}

	rows, err := sh.Get(ctx, grid.Range{Row: 1, Col: 1, NumRows: 1, NumCols: lastCol})
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", sh.Name(), err)
	}
	return schema.Resolve(rows[0], types), nil
}

// write runs fn holding a write slot.
func (s *Service) write(ctx context.Context, fn func() error) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()
	return fn()
}
