package fixture

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/slices"
)

type entryState int

const (
	entryUnbound entryState = iota
	entryReady
	entryTornDown
)

// entry is the registry's record of one declared fixture. The instance and
// nested fields are populated by the driver during setup and cleared again
// during teardown.
type entry struct {
	name     string
	fixture  Fixture
	depth    int
	state    entryState
	instance Instance
	nested   *Driver
}

// Registry is the ordered set of fixture declarations collected from one
// owner value. The order is the declaration order on the owner type, with
// declarations from embedded structs appearing at the position of the embed.
type Registry struct {
	ownerType string
	entries   []*entry
}

var fixtureInterfaceType = reflect.TypeOf((*Fixture)(nil)).Elem() //nolint:gochecknoglobals

// Collect gathers the fixture declarations of an owner value, which must be a
// non-nil pointer to a struct.
//
// Two declaration surfaces are recognized. First, every exported field whose
// type implements Fixture and whose value is non-nil is a declaration; the
// name is the field name unless a `fixture:"name"` tag renames it, and a
// `fixture:"-"` tag excludes a field. Exported embedded structs are walked in
// place, so declarations inherited from an embedded type keep the embed's
// position; an outer field with the same name overrides the inherited one
// without moving it. Second, if the owner implements Declarer, its
// declarations are appended after the field declarations.
//
// Declaring the same name twice at the same level is an error rather than a
// silent last-one-wins, since it is almost always a bug in the test.
func Collect(owner any) (*Registry, error) {
	structVal, err := ownerStruct(owner)
	if err != nil {
		return nil, err
	}
	r := &Registry{ownerType: fmt.Sprintf("%T", owner)}
	if err := r.collectFields(structVal, 0); err != nil {
		return nil, err
	}
	if err := r.collectDeclarer(owner); err != nil {
		return nil, err
	}
	return r, nil
}

// collectInstance is the tolerant variant used for probing bound instances
// for nested declarations: an instance that is not a struct pointer simply
// has none.
func collectInstance(instance Instance) (*Registry, error) {
	r := &Registry{ownerType: fmt.Sprintf("%T", instance)}
	if structVal, err := ownerStruct(instance); err == nil {
		if err := r.collectFields(structVal, 0); err != nil {
			return nil, err
		}
	}
	if err := r.collectDeclarer(instance); err != nil {
		return nil, err
	}
	return r, nil
}

func ownerStruct(owner any) (reflect.Value, error) {
	v := reflect.ValueOf(owner)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, &DeclarationError{
			Owner:  fmt.Sprintf("%T", owner),
			Reason: "owner must be a non-nil pointer to a struct",
		}
	}
	return v.Elem(), nil
}

func (r *Registry) collectFields(structVal reflect.Value, depth int) error {
	structType := structVal.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Tag.Get("fixture") == "-" || !field.IsExported() {
			continue
		}
		if field.Anonymous && !field.Type.Implements(fixtureInterfaceType) {
			embedded := structVal.Field(i)
			if embedded.Kind() == reflect.Ptr {
				if embedded.IsNil() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := r.collectFields(embedded, depth+1); err != nil {
					return err
				}
			}
			continue
		}
		if !field.Type.Implements(fixtureInterfaceType) {
			continue
		}
		value := structVal.Field(i)
		if isNilValue(value) {
			continue // an empty declaration slot is not a declaration
		}
		name := field.Name
		if tag := field.Tag.Get("fixture"); tag != "" {
			name = tag
		}
		if err := r.add(name, value.Interface().(Fixture), depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) collectDeclarer(owner any) error {
	d, ok := owner.(Declarer)
	if !ok {
		return nil
	}
	for _, decl := range d.Declarations() {
		if decl.Name == "" {
			return &DeclarationError{Owner: r.ownerType, Reason: "declaration with empty name"}
		}
		if decl.Fixture == nil {
			return &DeclarationError{Owner: r.ownerType, Name: decl.Name, Reason: "declaration with nil fixture"}
		}
		if err := r.add(decl.Name, decl.Fixture, 0); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) add(name string, f Fixture, depth int) error {
	i := slices.IndexFunc(r.entries, func(e *entry) bool { return e.name == name })
	if i < 0 {
		r.entries = append(r.entries, &entry{name: name, fixture: f, depth: depth})
		return nil
	}
	existing := r.entries[i]
	switch {
	case depth < existing.depth:
		// An outer declaration overrides one inherited from an embedded
		// struct, keeping the inherited declaration's position in the order.
		r.entries[i] = &entry{name: name, fixture: f, depth: depth}
		return nil
	case depth > existing.depth:
		// Already overridden by a shallower declaration seen earlier.
		return nil
	default:
		return &DeclarationError{Owner: r.ownerType, Name: name, Reason: "declared more than once"}
	}
}

func (r *Registry) find(name string) *entry {
	i := slices.IndexFunc(r.entries, func(e *entry) bool { return e.name == name })
	if i < 0 {
		return nil
	}
	return r.entries[i]
}

// Len returns the number of declarations.
func (r *Registry) Len() int { return len(r.entries) }

// Names returns the declared names in declaration order.
func (r *Registry) Names() []string {
	ret := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		ret = append(ret, e.name)
	}
	return ret
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
