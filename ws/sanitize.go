package ws

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Sanitize, keyfi bir in-memory değeri transport-safe, JSON-uyumlu bir
// temsile normalize eder:
//
//	uuid.UUID        → string
//	time.Time        → RFC3339 (ISO-8601) string, UTC
//	typed enum'lar   → wire değeri (alttaki string)
//	map / slice      → recursive sanitize edilmiş kopya
//	pointer          → işaret edilen değerin sanitize'ı (nil → nil)
//
// Idempotent ve total'dır: geçerli domain değerlerinde asla hata üretmez,
// tanımadığı skaler tipler olduğu gibi geçer. Struct'lar da olduğu gibi
// geçer — onları encoding/json kendi tag'leriyle serialize eder ve model
// struct'larımızın time alanları zaten RFC3339 yazılır.
func Sanitize(v any) any {
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case uuid.UUID:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case string:
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	}

	// Typed string sabitleri (models.MessageType gibi) ve generic olmayan
	// map/slice tipleri buraya düşer — reflection ile normalize edilir.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Sanitize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := Sanitize(iter.Key().Interface()).(string)
			if !ok {
				continue // string'e normalize edilemeyen key JSON'a zaten giremez
			}
			out[key] = Sanitize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return out
	}

	return v
}

// SafePayload, bir map payload'ın her değerini sanitize ederek yeni bir
// map döner. Dispatcher her Send'de bir kez çağırır.
func SafePayload(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Sanitize(v)
	}
	return out
}
