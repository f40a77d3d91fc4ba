package narr

import (
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// flatten converts the nested slices returned by a variable getter into a
// flat row-major slice and its shape.
func flatten(v any) ([]float64, []int, error) {
	rv := reflect.ValueOf(v)
	var shape []int
	n := 1
	for t := rv; t.Kind() == reflect.Slice; t = t.Index(0) {
		shape = append(shape, t.Len())
		n *= t.Len()
		if t.Len() == 0 {
			break
		}
	}
	if len(shape) == 0 {
		return nil, nil, fmt.Errorf("unexpected value of type %T", v)
	}
	out := make([]float64, 0, n)
	var walk func(reflect.Value) error
	walk = func(x reflect.Value) error {
		switch s := x.Interface().(type) {
		case []float32:
			for _, e := range s {
				out = append(out, float64(e))
			}
			return nil
		case []float64:
			out = append(out, s...)
			return nil
		case []int16:
			for _, e := range s {
				out = append(out, float64(e))
			}
			return nil
		}
		if x.Kind() != reflect.Slice {
			f, ok := toFloat(x.Interface())
			if !ok {
				return fmt.Errorf("unsupported element type %s", x.Type())
			}
			out = append(out, f)
			return nil
		}
		for i := 0; i < x.Len(); i++ {
			if err := walk(x.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rv); err != nil {
		return nil, nil, err
	}
	if len(out) != n {
		return nil, nil, fmt.Errorf("ragged array: got %d values, want %d", len(out), n)
	}
	return out, shape, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case []float32:
		if len(x) == 1 {
			return float64(x[0]), true
		}
	case []float64:
		if len(x) == 1 {
			return x[0], true
		}
	case []int16:
		if len(x) == 1 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

// packing describes how raw stored values map to physical values.
type packing struct {
	scale   float64
	offset  float64
	missing []float64
}

func packingOf(attrs api.AttributeMap) packing {
	p := packing{scale: 1}
	if attrs == nil {
		return p
	}
	if v, ok := attrs.Get("scale_factor"); ok {
		if f, ok := toFloat(v); ok {
			p.scale = f
		}
	}
	if v, ok := attrs.Get("add_offset"); ok {
		if f, ok := toFloat(v); ok {
			p.offset = f
		}
	}
	for _, key := range []string{"missing_value", "_FillValue"} {
		if v, ok := attrs.Get(key); ok {
			if f, ok := toFloat(v); ok {
				p.missing = append(p.missing, f)
			}
		}
	}
	return p
}

// unpack replaces missing raw values with NaN and applies the scale factor
// and offset to the rest, in place.
func (p packing) unpack(vals []float64) {
	for i, v := range vals {
		if p.isMissing(v) {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = v*p.scale + p.offset
	}
}

func (p packing) isMissing(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, m := range p.missing {
		if v == m {
			return true
		}
	}
	return false
}

func stringAttr(attrs api.AttributeMap, key string) string {
	if attrs == nil {
		return ""
	}
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
