package module

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"quill/internal/vm"
)

func nf(name string, arity int, fn func(args []vm.Value) (vm.Value, error)) *vm.NativeFunction {
	return &vm.NativeFunction{Name: name, Arity: arity, Function: fn}
}

func num1(name string, fn func(x float64) float64) *vm.NativeFunction {
	return nf(name, 1, func(args []vm.Value) (vm.Value, error) {
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%s expects a number, got %s", name, vm.ValueType(args[0]))
		}
		return fn(x), nil
	})
}

func str1(name string, fn func(s string) vm.Value) *vm.NativeFunction {
	return nf(name, 1, func(args []vm.Value) (vm.Value, error) {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s expects a string, got %s", name, vm.ValueType(args[0]))
		}
		return fn(s), nil
	})
}

func mathModule() *Module {
	return &Module{
		Package: "std",
		Name:    "math",
		Exports: map[string]vm.Value{
			"PI":    math.Pi,
			"E":     math.E,
			"abs":   num1("abs", math.Abs),
			"floor": num1("floor", math.Floor),
			"ceil":  num1("ceil", math.Ceil),
			"sqrt":  num1("sqrt", math.Sqrt),
			"pow": nf("pow", 2, func(args []vm.Value) (vm.Value, error) {
				return math.Pow(vm.ToNumber(args[0]), vm.ToNumber(args[1])), nil
			}),
			"min": nf("min", 2, func(args []vm.Value) (vm.Value, error) {
				return math.Min(vm.ToNumber(args[0]), vm.ToNumber(args[1])), nil
			}),
			"max": nf("max", 2, func(args []vm.Value) (vm.Value, error) {
				return math.Max(vm.ToNumber(args[0]), vm.ToNumber(args[1])), nil
			}),
		},
	}
}

func stringsModule() *Module {
	return &Module{
		Package: "std",
		Name:    "strings",
		Exports: map[string]vm.Value{
			"upper": str1("upper", func(s string) vm.Value { return strings.ToUpper(s) }),
			"lower": str1("lower", func(s string) vm.Value { return strings.ToLower(s) }),
			"trim":  str1("trim", func(s string) vm.Value { return strings.TrimSpace(s) }),
			"len":   str1("len", func(s string) vm.Value { return float64(len(s)) }),
			"contains": nf("contains", 2, func(args []vm.Value) (vm.Value, error) {
				return strings.Contains(vm.ToString(args[0]), vm.ToString(args[1])), nil
			}),
			"replace": nf("replace", 3, func(args []vm.Value) (vm.Value, error) {
				return strings.ReplaceAll(vm.ToString(args[0]), vm.ToString(args[1]), vm.ToString(args[2])), nil
			}),
			"split": nf("split", 2, func(args []vm.Value) (vm.Value, error) {
				parts := strings.Split(vm.ToString(args[0]), vm.ToString(args[1]))
				arr := vm.NewArray(len(parts))
				for _, p := range parts {
					arr.Elements = append(arr.Elements, p)
				}
				return arr, nil
			}),
			"join": nf("join", 2, func(args []vm.Value) (vm.Value, error) {
				arr, ok := args[0].(*vm.Array)
				if !ok {
					return nil, fmt.Errorf("join expects an array, got %s", vm.ValueType(args[0]))
				}
				parts := make([]string, len(arr.Elements))
				for i, e := range arr.Elements {
					parts[i] = vm.ToString(e)
				}
				return strings.Join(parts, vm.ToString(args[1])), nil
			}),
		},
	}
}

func jsonModule() *Module {
	return &Module{
		Package: "std",
		Name:    "json",
		Exports: map[string]vm.Value{
			"encode": nf("encode", 1, func(args []vm.Value) (vm.Value, error) {
				data, err := json.Marshal(toJSON(args[0]))
				if err != nil {
					return nil, fmt.Errorf("json encode: %w", err)
				}
				return string(data), nil
			}),
			"decode": nf("decode", 1, func(args []vm.Value) (vm.Value, error) {
				var raw interface{}
				if err := json.Unmarshal([]byte(vm.ToString(args[0])), &raw); err != nil {
					return nil, fmt.Errorf("json decode: %w", err)
				}
				return fromJSON(raw), nil
			}),
		},
	}
}

func toJSON(val vm.Value) interface{} {
	switch v := val.(type) {
	case *vm.Array:
		out := make([]interface{}, len(v.Elements))
		for i, e := range v.Elements {
			out[i] = toJSON(e)
		}
		return out
	case *vm.Map:
		out := make(map[string]interface{}, len(v.Items))
		for k, item := range v.Items {
			out[k] = toJSON(item)
		}
		return out
	default:
		return v
	}
}

func fromJSON(raw interface{}) vm.Value {
	switch v := raw.(type) {
	case []interface{}:
		arr := vm.NewArray(len(v))
		for _, e := range v {
			arr.Elements = append(arr.Elements, fromJSON(e))
		}
		return arr
	case map[string]interface{}:
		m := vm.NewMap()
		for k, e := range v {
			m.Items[k] = fromJSON(e)
		}
		return m
	default:
		return v
	}
}

func timeModule() *Module {
	return &Module{
		Package: "std",
		Name:    "time",
		Exports: map[string]vm.Value{
			"now": nf("now", 0, func(args []vm.Value) (vm.Value, error) {
				return float64(time.Now().Unix()), nil
			}),
			"now_ms": nf("now_ms", 0, func(args []vm.Value) (vm.Value, error) {
				return float64(time.Now().UnixMilli()), nil
			}),
			"format": nf("format", 2, func(args []vm.Value) (vm.Value, error) {
				sec := int64(vm.ToNumber(args[0]))
				return time.Unix(sec, 0).UTC().Format(vm.ToString(args[1])), nil
			}),
		},
	}
}

func uuidModule() *Module {
	return &Module{
		Package: "ext",
		Name:    "uuid",
		Exports: map[string]vm.Value{
			"new": nf("new", 0, func(args []vm.Value) (vm.Value, error) {
				return uuid.NewString(), nil
			}),
			"valid": nf("valid", 1, func(args []vm.Value) (vm.Value, error) {
				_, err := uuid.Parse(vm.ToString(args[0]))
				return err == nil, nil
			}),
		},
	}
}

func humanizeModule() *Module {
	return &Module{
		Package: "ext",
		Name:    "humanize",
		Exports: map[string]vm.Value{
			"bytes": nf("bytes", 1, func(args []vm.Value) (vm.Value, error) {
				return humanize.Bytes(uint64(vm.ToNumber(args[0]))), nil
			}),
			"comma": nf("comma", 1, func(args []vm.Value) (vm.Value, error) {
				return humanize.Comma(int64(vm.ToNumber(args[0]))), nil
			}),
			"ordinal": nf("ordinal", 1, func(args []vm.Value) (vm.Value, error) {
				return humanize.Ordinal(int(vm.ToNumber(args[0]))), nil
			}),
		},
	}
}
