package storage

import (
	"reflect"
	"sort"
	"sync"

	"github.com/impossiblefinance/exchange-indexer/entity"
)

// MemoryStore keeps entities in per-type tables. Load and Save exchange
// copies, so a handler mutating an entity after Save does not corrupt the
// stored row.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]map[string]entity.Interface
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: map[string]map[string]entity.Interface{},
	}
}

func (s *MemoryStore) Load(e entity.Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[tableName(e)]
	if !ok {
		return nil
	}
	row, ok := table[e.GetID()]
	if !ok {
		return nil
	}

	reflect.ValueOf(e).Elem().Set(reflect.ValueOf(row).Elem())
	e.SetExists(true)
	return nil
}

func (s *MemoryStore) Save(e entity.Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := tableName(e)
	table, ok := s.tables[name]
	if !ok {
		table = map[string]entity.Interface{}
		s.tables[name] = table
	}

	row := clone(e)
	row.SetExists(true)
	table[e.GetID()] = row
	e.SetExists(true)
	return nil
}

func (s *MemoryStore) Remove(e entity.Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.tables[tableName(e)]; ok {
		delete(table, e.GetID())
	}
	e.SetExists(false)
	return nil
}

// Len returns the number of stored rows for the entity type of model.
func (s *MemoryStore) Len(model entity.Interface) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tables[tableName(model)])
}

// Tables dumps every table with rows sorted by ID, mostly for the CLI
// output and for assertions in tests.
func (s *MemoryStore) Tables() map[string][]entity.Interface {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string][]entity.Interface{}
	for name, table := range s.tables {
		rows := make([]entity.Interface, 0, len(table))
		for _, row := range table {
			rows = append(rows, clone(row))
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].GetID() < rows[j].GetID() })
		out[name] = rows
	}
	return out
}

func tableName(e entity.Interface) string {
	return reflect.TypeOf(e).Elem().Name()
}

func clone(e entity.Interface) entity.Interface {
	src := reflect.ValueOf(e).Elem()
	dst := reflect.New(src.Type())
	dst.Elem().Set(src)
	return dst.Interface().(entity.Interface)
}
