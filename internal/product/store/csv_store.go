package store

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/abgdnv/product-catalog/internal/product/errors"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

var _ ProductStore = (*CSVStore)(nil)

// csvRecord is one line of the products file. Cells are kept as text so that
// malformed numbers can be read as absent values instead of failing the whole file.
type csvRecord struct {
	ID          string `csv:"id"`
	Name        string `csv:"name"`
	Description string `csv:"description"`
	Price       string `csv:"price"`
	Quantity    string `csv:"quantity"`
}

// CSVStore implements ProductStore on top of a single CSV file with the header
// id,name,description,price,quantity. Every call reads the whole file and every
// write replaces it. A missing file is an empty catalog.
// Access is serialized within the process only.
type CSVStore struct {
	mu     sync.RWMutex
	path   string
	logger *slog.Logger
}

// NewCSVStore creates a store for the file at path, creating its parent directory if needed.
func NewCSVStore(path string, logger *slog.Logger) (*CSVStore, error) {
	s := &CSVStore{
		path:   path,
		logger: logger.With("component", "csv_store", "path", path),
	}
	if err := s.ensureParentDirectory(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CSVStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, errors.ErrProductNotFound
}

func (s *CSVStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	found := make([]Product, 0, len(ids))
	for _, p := range products {
		if _, ok := wanted[p.ID]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

// FindAll returns the products in file order.
func (s *CSVStore) FindAll(ctx context.Context) ([]Product, error) {
	return s.read(ctx)
}

func (s *CSVStore) FindAllSortedByPrice(ctx context.Context, order SortOrder) ([]Product, error) {
	products, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	SortByPrice(products, order)
	return products, nil
}

func (s *CSVStore) Insert(ctx context.Context, toInsert []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	existing := indexByID(products)
	for _, p := range toInsert {
		if _, ok := existing[p.ID]; ok {
			return fmt.Errorf("id %d: %w", p.ID, errors.ErrProductExists)
		}
	}
	s.logger.InfoContext(ctx, "Writing products to CSV after create", "created", len(toInsert), "total", len(products)+len(toInsert))
	return s.writeLocked(append(products, toInsert...))
}

func (s *CSVStore) Upsert(ctx context.Context, toUpsert []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	existing := indexByID(products)
	for _, p := range toUpsert {
		if i, ok := existing[p.ID]; ok {
			products[i] = p
			continue
		}
		existing[p.ID] = len(products)
		products = append(products, p)
	}
	s.logger.InfoContext(ctx, "Writing products to CSV after upsert", "total", len(products))
	return s.writeLocked(products)
}

func (s *CSVStore) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(products) {
		s.logger.DebugContext(ctx, "No product found to delete", "id", id)
		return errors.ErrProductNotFound
	}
	s.logger.InfoContext(ctx, "Deleting product from CSV", "id", id, "remaining", len(kept))
	return s.writeLocked(kept)
}

// Ping checks that the file is readable, or that it can be created.
func (s *CSVStore) Ping(_ context.Context) error {
	f, err := os.Open(s.path)
	if err == nil {
		return f.Close()
	}
	if os.IsNotExist(err) {
		return s.ensureParentDirectory()
	}
	return fmt.Errorf("csv file is not readable: %w", err)
}

func (s *CSVStore) read(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked(ctx)
}

func (s *CSVStore) readLocked(ctx context.Context) ([]Product, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.DebugContext(ctx, "CSV file not found, returning empty list")
			return []Product{}, nil
		}
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	records, err := decodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file %s: %w", s.path, err)
	}

	products := make([]Product, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for line, rec := range records {
		p, ok := rec.toProduct()
		if !ok {
			s.logger.WarnContext(ctx, "Skipping CSV row without a valid id", "row", line+1, "id", rec.ID)
			continue
		}
		if _, dup := seen[p.ID]; dup {
			s.logger.WarnContext(ctx, "Skipping CSV row with duplicate id", "row", line+1, "id", p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	s.logger.DebugContext(ctx, "Loaded products from CSV", "count", len(products))
	return products, nil
}

// writeLocked replaces the file through a temporary sibling and a rename.
func (s *CSVStore) writeLocked(products []Product) error {
	if err := s.ensureParentDirectory(); err != nil {
		return err
	}
	records := make([]csvRecord, len(products))
	for i, p := range products {
		records[i] = fromProduct(p)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary csv file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if err := gocsv.Marshal(&records, tmp); err != nil {
		cleanup()
		return fmt.Errorf("failed to encode csv: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush csv file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close csv file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace csv file: %w", err)
	}
	return nil
}

func (s *CSVStore) ensureParentDirectory() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory for csv file %s: %w", dir, err)
	}
	return nil
}

func decodeRecords(r io.Reader) ([]csvRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var records []csvRecord
	if err := gocsv.UnmarshalCSV(reader, &records); err != nil {
		if stderrors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

func indexByID(products []Product) map[int64]int {
	idx := make(map[int64]int, len(products))
	for i, p := range products {
		idx[p.ID] = i
	}
	return idx
}

// toProduct converts a record, reporting false when the id is unusable.
// Unparsable price or quantity cells become absent values. Name is always present.
func (r csvRecord) toProduct() (Product, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil {
		return Product{}, false
	}
	name := r.Name
	p := Product{
		ID:          id,
		Name:        &name,
		Description: optionalString(r.Description),
	}
	if price, err := decimal.NewFromString(strings.TrimSpace(r.Price)); err == nil {
		p.Price = &price
	}
	if qty, err := strconv.ParseInt(strings.TrimSpace(r.Quantity), 10, 32); err == nil {
		q := int32(qty)
		p.Quantity = &q
	}
	return p, true
}

func fromProduct(p Product) csvRecord {
	rec := csvRecord{ID: strconv.FormatInt(p.ID, 10)}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.Price != nil {
		rec.Price = p.Price.String()
	}
	if p.Quantity != nil {
		rec.Quantity = strconv.FormatInt(int64(*p.Quantity), 10)
	}
	return rec
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
