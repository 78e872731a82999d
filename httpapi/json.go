/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package httpapi

import (
	"github.com/harrykodden/trx"
)

// fromJSON converts a value produced by encoding/json's decoder (map[string]
// any, []any, float64, string, bool, nil) into a trx.Value, uppercasing
// object keys on ingress per §4.1's case-insensitive field access rule.
func fromJSON(v any) trx.Value {
	switch t := v.(type) {
	case nil:
		return trx.Null
	case bool:
		return trx.NewBool(t)
	case float64:
		return trx.NewNumber(t)
	case string:
		return trx.NewString(t)
	case []any:
		elems := make([]trx.Value, len(t))
		for i, e := range t {
			elems[i] = fromJSON(e)
		}
		return trx.NewArray(elems...)
	case map[string]any:
		obj := trx.NewObject()
		for k, e := range t {
			obj = obj.WithField(k, fromJSON(e))
		}
		return obj
	default:
		return trx.Null
	}
}

// toJSON converts a trx.Value into a plain Go value ready for
// encoding/json, preserving object key case as stored (egress does not
// re-uppercase, per §4.1).
func toJSON(v trx.Value) any {
	switch v.Kind() {
	case trx.KindNull:
		return nil
	case trx.KindBool:
		return v.Bool()
	case trx.KindNumber:
		return v.Number()
	case trx.KindString:
		return v.String()
	case trx.KindArray:
		elems := v.Elements()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = toJSON(e)
		}
		return out
	case trx.KindObject:
		out := map[string]any{}
		for _, k := range v.Keys() {
			field, _ := v.Field(k)
			out[k] = toJSON(field)
		}
		return out
	default:
		return nil
	}
}
