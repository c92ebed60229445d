// Package registry provides a central schema registry for table metadata.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// Registry is a thread-safe registry for table metadata and enum types.
// Tables keep their registration order.
type Registry struct {
	mu     sync.RWMutex
	parser *schema.Parser
	tables map[reflect.Type]*schema.TableMetadata
	names  map[string]*schema.TableMetadata
	order  []*schema.TableMetadata
	enums  []schema.EnumType
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		parser: schema.NewParser(),
		tables: make(map[reflect.Type]*schema.TableMetadata),
		names:  make(map[string]*schema.TableMetadata),
	}
}

// Register registers a model type and extracts its metadata.
func (r *Registry) Register(model any) error {
	modelType := reflect.TypeOf(model)
	if modelType == nil {
		return fmt.Errorf("model must be a struct, got nil")
	}
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[modelType]; ok {
		return nil
	}

	table, err := r.parser.Parse(modelType)
	if err != nil {
		return fmt.Errorf("failed to parse model %s: %w", modelType.Name(), err)
	}
	if _, ok := r.names[table.Name]; ok {
		return fmt.Errorf("table %s already registered by another model", table.Name)
	}

	r.tables[modelType] = table
	r.names[table.Name] = table
	r.order = append(r.order, table)
	return nil
}

// RegisterEnum registers a PostgreSQL enum type. Registering the same name
// twice replaces the literal set.
func (r *Registry) RegisterEnum(enum schema.EnumType) error {
	if enum.Name == "" || len(enum.Values) == 0 {
		return fmt.Errorf("enum type needs a name and at least one value")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.enums {
		if r.enums[i].Name == enum.Name {
			r.enums[i] = enum
			return nil
		}
	}
	r.enums = append(r.enums, enum)
	return nil
}

// Get retrieves TableMetadata by Go type.
func (r *Registry) Get(modelType reflect.Type) (*schema.TableMetadata, error) {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	table, ok := r.tables[modelType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("model type %s not registered", modelType.Name())
	}
	return table, nil
}

// GetByName retrieves TableMetadata by table name.
func (r *Registry) GetByName(tableName string) (*schema.TableMetadata, error) {
	r.mu.RLock()
	table, ok := r.names[tableName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("table %s not registered", tableName)
	}
	return table, nil
}

// GetOrRegister retrieves TableMetadata or registers it if not found.
func (r *Registry) GetOrRegister(model any) (*schema.TableMetadata, error) {
	modelType := reflect.TypeOf(model)
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	table, ok := r.tables[modelType]
	r.mu.RUnlock()
	if ok {
		return table, nil
	}

	if err := r.Register(model); err != nil {
		return nil, err
	}
	return r.Get(modelType)
}

// All returns all registered tables in registration order.
func (r *Registry) All() []*schema.TableMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := make([]*schema.TableMetadata, len(r.order))
	copy(tables, r.order)
	return tables
}

// AllNames returns all registered table names in registration order.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	for i, t := range r.order {
		names[i] = t.Name
	}
	return names
}

// Enums returns the registered enum types in registration order.
func (r *Registry) Enums() []schema.EnumType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enums := make([]schema.EnumType, len(r.enums))
	copy(enums, r.enums)
	return enums
}

// Enum returns the enum type with the given name.
func (r *Registry) Enum(name string) (schema.EnumType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.enums {
		if e.Name == name {
			return e, true
		}
	}
	return schema.EnumType{}, false
}

// Sorted returns the registered tables ordered so that every table comes
// after the tables it references. Self references are ignored. Ties keep
// registration order. References to unregistered tables or a cycle between
// tables is an error.
func (r *Registry) Sorted() ([]*schema.TableMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	position := make(map[string]int, len(r.order))
	for i, t := range r.order {
		position[t.Name] = i
	}

	inDegree := make(map[string]int, len(r.order))
	children := make(map[string][]string)
	for _, t := range r.order {
		deps := t.DependsOn()
		for _, dep := range deps {
			if _, ok := r.names[dep]; !ok {
				return nil, fmt.Errorf("table %s references unregistered table %s", t.Name, dep)
			}
			children[dep] = append(children[dep], t.Name)
		}
		inDegree[t.Name] = len(deps)
	}

	var ready []string
	for _, t := range r.order {
		if inDegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}

	sorted := make([]*schema.TableMetadata, 0, len(r.order))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool {
			return position[ready[i]] < position[ready[j]]
		})
		name := ready[0]
		ready = ready[1:]
		sorted = append(sorted, r.names[name])

		for _, child := range children[name] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(sorted) != len(r.order) {
		return nil, fmt.Errorf("foreign key cycle between registered tables")
	}
	return sorted, nil
}

// Clear removes all registered models and enums.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables = make(map[reflect.Type]*schema.TableMetadata)
	r.names = make(map[string]*schema.TableMetadata)
	r.order = nil
	r.enums = nil
}

// Has checks if a model type is registered.
func (r *Registry) Has(modelType reflect.Type) bool {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	_, ok := r.tables[modelType]
	r.mu.RUnlock()
	return ok
}

// HasTable checks if a table name is registered.
func (r *Registry) HasTable(tableName string) bool {
	r.mu.RLock()
	_, ok := r.names[tableName]
	r.mu.RUnlock()
	return ok
}
