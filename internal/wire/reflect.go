package wire

import (
	"fmt"
	"reflect"
)

// reflectSerialize is the generic fallback used once a value has been ruled
// out as a wire.Object and as one of the fixed-size POD kinds: it walks the
// value's reflect.Kind recursively, the same way encoding/gob falls back to
// reflection for types that don't implement GobEncoder. Composite types
// (slices, arrays, maps, structs, pointers) and named scalar types (whose
// underlying kind matches a POD kind but whose exact type doesn't match the
// SerializeTemporary type switch) are both handled here.
func reflectSerialize(s *Serializer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		return s.WriteBool(rv.Bool())
	case reflect.Int8:
		return s.WriteUint8(uint8(rv.Int()))
	case reflect.Int16:
		return s.WriteUint16(uint16(rv.Int()))
	case reflect.Int32:
		return s.WriteUint32(uint32(rv.Int()))
	case reflect.Int, reflect.Int64:
		return s.WriteInt64(rv.Int())
	case reflect.Uint8:
		return s.WriteUint8(uint8(rv.Uint()))
	case reflect.Uint16:
		return s.WriteUint16(uint16(rv.Uint()))
	case reflect.Uint32:
		return s.WriteUint32(uint32(rv.Uint()))
	case reflect.Uint, reflect.Uint64:
		return s.WriteUint64(rv.Uint())
	case reflect.Float32:
		return s.WriteFloat32(float32(rv.Float()))
	case reflect.Float64:
		return s.WriteFloat64(rv.Float())
	case reflect.String:
		return s.WriteString(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return s.WriteUint32(0)
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return s.WriteBytes(rv.Bytes())
		}
		n := rv.Len()
		if err := s.WriteUint32(uint32(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := s.Serialize(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("wire: slice element %d: %w", i, err)
			}
		}
		return nil
	case reflect.Array:
		n := rv.Len()
		for i := 0; i < n; i++ {
			if err := s.Serialize(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("wire: array element %d: %w", i, err)
			}
		}
		return nil
	case reflect.Map:
		if rv.IsNil() {
			return s.WriteUint32(0)
		}
		keys := rv.MapKeys()
		if err := s.WriteUint32(uint32(len(keys))); err != nil {
			return err
		}
		for _, k := range keys {
			if err := s.Serialize(k.Interface()); err != nil {
				return fmt.Errorf("wire: map key: %w", err)
			}
			if err := s.Serialize(rv.MapIndex(k).Interface()); err != nil {
				return fmt.Errorf("wire: map value: %w", err)
			}
		}
		return nil
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				continue
			}
			if err := s.Serialize(rv.Field(i).Interface()); err != nil {
				return fmt.Errorf("wire: field %s: %w", t.Field(i).Name, err)
			}
		}
		return nil
	case reflect.Ptr:
		if rv.IsNil() {
			return s.WriteBool(false)
		}
		if err := s.WriteBool(true); err != nil {
			return err
		}
		return s.Serialize(rv.Elem().Interface())
	case reflect.Interface:
		if rv.IsNil() {
			return fmt.Errorf("wire: cannot serialize a nil interface value")
		}
		return s.Serialize(rv.Elem().Interface())
	default:
		return fmt.Errorf("wire: %s is neither a wire.Object nor a recognized POD kind", rv.Type())
	}
}

// reflectDeserialize is the dual of reflectSerialize: rv must be settable,
// typically obtained from reflect.ValueOf(ptr).Elem().
func reflectDeserialize(d *Deserializer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		v, err := d.ReadBool()
		if err == nil {
			rv.SetBool(v)
		}
		return err
	case reflect.Int8:
		v, err := d.ReadUint8()
		if err == nil {
			rv.SetInt(int64(int8(v)))
		}
		return err
	case reflect.Int16:
		v, err := d.ReadUint16()
		if err == nil {
			rv.SetInt(int64(int16(v)))
		}
		return err
	case reflect.Int32:
		v, err := d.ReadUint32()
		if err == nil {
			rv.SetInt(int64(int32(v)))
		}
		return err
	case reflect.Int, reflect.Int64:
		v, err := d.ReadInt64()
		if err == nil {
			rv.SetInt(v)
		}
		return err
	case reflect.Uint8:
		v, err := d.ReadUint8()
		if err == nil {
			rv.SetUint(uint64(v))
		}
		return err
	case reflect.Uint16:
		v, err := d.ReadUint16()
		if err == nil {
			rv.SetUint(uint64(v))
		}
		return err
	case reflect.Uint32:
		v, err := d.ReadUint32()
		if err == nil {
			rv.SetUint(uint64(v))
		}
		return err
	case reflect.Uint, reflect.Uint64:
		v, err := d.ReadUint64()
		if err == nil {
			rv.SetUint(v)
		}
		return err
	case reflect.Float32:
		v, err := d.ReadFloat32()
		if err == nil {
			rv.SetFloat(float64(v))
		}
		return err
	case reflect.Float64:
		v, err := d.ReadFloat64()
		if err == nil {
			rv.SetFloat(v)
		}
		return err
	case reflect.String:
		v, err := d.ReadString()
		if err == nil {
			rv.SetString(v)
		}
		return err
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			v, err := d.ReadBytes()
			if err != nil {
				return err
			}
			cp := make([]byte, len(v))
			copy(cp, v)
			rv.SetBytes(cp)
			return nil
		}
		n, err := d.ReadUint32()
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(rv.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			if err := d.deserializeInto(out.Index(i)); err != nil {
				return fmt.Errorf("wire: slice element %d: %w", i, err)
			}
		}
		rv.Set(out)
		return nil
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := d.deserializeInto(rv.Index(i)); err != nil {
				return fmt.Errorf("wire: array element %d: %w", i, err)
			}
		}
		return nil
	case reflect.Map:
		n, err := d.ReadUint32()
		if err != nil {
			return err
		}
		t := rv.Type()
		out := reflect.MakeMapWithSize(t, int(n))
		for i := 0; i < int(n); i++ {
			key := reflect.New(t.Key()).Elem()
			if err := d.deserializeInto(key); err != nil {
				return fmt.Errorf("wire: map key: %w", err)
			}
			val := reflect.New(t.Elem()).Elem()
			if err := d.deserializeInto(val); err != nil {
				return fmt.Errorf("wire: map value: %w", err)
			}
			out.SetMapIndex(key, val)
		}
		rv.Set(out)
		return nil
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				continue
			}
			if err := d.deserializeInto(rv.Field(i)); err != nil {
				return fmt.Errorf("wire: field %s: %w", t.Field(i).Name, err)
			}
		}
		return nil
	case reflect.Ptr:
		present, err := d.ReadBool()
		if err != nil {
			return err
		}
		if !present {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		out := reflect.New(rv.Type().Elem())
		if err := d.deserializeInto(out.Elem()); err != nil {
			return err
		}
		rv.Set(out)
		return nil
	default:
		return fmt.Errorf("wire: %s is neither a wire.Unmarshaler nor a recognized POD kind", rv.Type())
	}
}

// deserializeInto is reflectDeserialize's recursive entry point: it honors
// the Unmarshaler contract for addressable element types too, not just the
// top-level value Deserialize was called with.
func (d *Deserializer) deserializeInto(rv reflect.Value) error {
	if rv.CanAddr() {
		if obj, ok := rv.Addr().Interface().(Unmarshaler); ok {
			return obj.UnmarshalWire(d)
		}
	}
	return reflectDeserialize(d, rv)
}
