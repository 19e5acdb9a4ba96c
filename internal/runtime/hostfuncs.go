package runtime

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/metascan/internal/meta"
)

// makeEmitFn creates the "emit" host function.
//
// emit(key, value) → nil
func makeEmitFn(fn EmitFunc) *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("emit", 2, len(args))
		}
		key, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("emit: key must be a string, got %s", args[0].Type())
		}
		value, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("emit: value must be a string, got %s", args[1].Type())
		}
		if fn != nil {
			fn(key.Value(), value.Value())
		}
		return object.Nil
	})
}

// UnitObject renders u as a Risor map. Scripts cannot call Go methods on
// plain structs, so derived values (member keys, parameter types) are
// precomputed here.
func UnitObject(u *meta.Unit) *object.Map {
	methods := make([]object.Object, 0, len(u.Methods))
	for _, m := range u.Methods {
		methods = append(methods, memberObject(u.Name, m))
	}
	fields := make([]object.Object, 0, len(u.Fields))
	for _, f := range u.Fields {
		fields = append(fields, memberObject(u.Name, f))
	}

	return object.NewMap(map[string]object.Object{
		"name":        object.NewString(u.Name),
		"superclass":  object.NewString(u.Superclass),
		"interfaces":  stringList(u.Interfaces),
		"annotations": stringList(u.Annotations),
		"methods":     object.NewList(methods),
		"fields":      object.NewList(fields),
	})
}

func memberObject(unit string, m meta.Member) *object.Map {
	params := make([]object.Object, 0, len(m.Params))
	for _, p := range m.Params {
		params = append(params, object.NewMap(map[string]object.Object{
			"type":        object.NewString(p.Type),
			"annotations": stringList(p.Annotations),
		}))
	}

	return object.NewMap(map[string]object.Object{
		"name":        object.NewString(m.Name),
		"kind":        object.NewString(string(m.Kind)),
		"key":         object.NewString(meta.MemberKey(unit, m)),
		"params":      object.NewList(params),
		"param_types": stringList(m.ParamTypes()),
		"return_type": object.NewString(m.ReturnType),
		"type":        object.NewString(m.Type),
		"annotations": stringList(m.Annotations),
	})
}

func stringList(values []string) *object.List {
	items := make([]object.Object, 0, len(values))
	for _, v := range values {
		items = append(items, object.NewString(v))
	}
	return object.NewList(items)
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
