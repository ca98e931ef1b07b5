package reflectutil

import (
	"fmt"
	"reflect"
)

func DerefValue(v reflect.Value) reflect.Value {
	for (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func IsEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Chan, reflect.String:
		return val.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if val.IsNil() {
			return true
		}
		return IsEmptyValue(val.Elem().Interface())
	default:
		return reflect.DeepEqual(val.Interface(), reflect.Zero(val.Type()).Interface())
	}
}

// StructFieldType returns the type of the exported field name on struct type t
// (pointers to structs are followed).
func StructFieldType(t reflect.Type, name string) (reflect.Type, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %v is not a struct", t)
	}
	f, ok := t.FieldByName(name)
	if !ok {
		return nil, fmt.Errorf("type %s has no field %q", t.Name(), name)
	}
	if !f.IsExported() {
		return nil, fmt.Errorf("field %s.%s is not exported", t.Name(), name)
	}
	return f.Type, nil
}

// StringValue reads a string or *string value. ok is false for nil pointers
// and unsupported kinds.
func StringValue(v reflect.Value) (string, bool) {
	if !v.IsValid() {
		return "", false
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.String {
		return "", false
	}
	return v.String(), true
}

// SetString assigns s to a settable string or *string value.
func SetString(v reflect.Value, s string) error {
	if !v.CanSet() {
		return fmt.Errorf("value of type %v is not settable", v.Type())
	}
	switch {
	case v.Kind() == reflect.String:
		v.SetString(s)
	case v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.String:
		p := reflect.New(v.Type().Elem())
		p.Elem().SetString(s)
		v.Set(p)
	default:
		return fmt.Errorf("value of type %v is neither string nor *string", v.Type())
	}
	return nil
}

func IsStringOrStringPtr(t reflect.Type) bool {
	if t.Kind() == reflect.String {
		return true
	}
	return t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.String
}
