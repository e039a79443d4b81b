package object

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thymelang/thyme/pkg/ast"
	"github.com/thymelang/thyme/pkg/note"
)

// ErrNotSerializable marks values that only live in the in-memory tier:
// lambdas close over environments, and buttons, schedules and views are
// built from them.
var ErrNotSerializable = errors.New("value does not serialize")

// ErrVanishedNote is returned when a stored note reference no longer
// resolves. Callers treat the entry as a miss.
var ErrVanishedNote = errors.New("note no longer exists")

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// wireValue is the stored form of a value: a type tag plus a
// tag-specific payload.
type wireValue struct {
	T    string          `json:"t"`
	V    json.RawMessage `json:"v,omitempty"`
	Name string          `json:"name,omitempty"`
	Path string          `json:"path,omitempty"`
}

// Encode serializes a value for a persistent cache. It returns
// ErrNotSerializable for deferred values; callers keep those in memory
// only.
func Encode(obj Object) ([]byte, error) {
	w, err := toWire(obj)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(obj Object) (*wireValue, error) {
	switch v := obj.(type) {
	case *Number:
		return tagged("number", v.Value)
	case *String:
		return tagged("string", v.Value)
	case *Boolean:
		return tagged("boolean", v.Value)
	case *Date:
		return tagged("date", v.Value.Format(dateLayout))
	case *Time:
		return tagged("time", fmt.Sprintf("%02d:%02d:%02d", v.Hour, v.Minute, v.Second))
	case *DateTime:
		return tagged("datetime", v.Value.Format(time.RFC3339Nano))
	case *List:
		elems := make([]*wireValue, len(v.Elements))
		for i, e := range v.Elements {
			w, err := toWire(e)
			if err != nil {
				return nil, err
			}
			elems[i] = w
		}
		return tagged("list", elems)
	case *Pattern:
		return tagged("pattern", v.Elements)
	case *Note:
		raw, err := json.Marshal(v.ID)
		if err != nil {
			return nil, err
		}
		return &wireValue{T: "note", V: raw, Name: v.Name, Path: v.Path}, nil
	case *Undefined:
		return &wireValue{T: "undefined"}, nil
	default:
		return nil, fmt.Errorf("%s: %w", TypeName(obj), ErrNotSerializable)
	}
}

func tagged(t string, v any) (*wireValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &wireValue{T: t, V: raw}, nil
}

// Decode restores a stored value. Note references are re-resolved
// against col and their display snapshots refreshed; a reference to a
// note that no longer exists decodes to ErrVanishedNote.
func Decode(data []byte, col note.Collection) (Object, error) {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return fromWire(&w, col)
}

func fromWire(w *wireValue, col note.Collection) (Object, error) {
	switch w.T {
	case "number":
		var v float64
		if err := json.Unmarshal(w.V, &v); err != nil {
			return nil, err
		}
		return &Number{Value: v}, nil
	case "string":
		var v string
		if err := json.Unmarshal(w.V, &v); err != nil {
			return nil, err
		}
		return &String{Value: v}, nil
	case "boolean":
		var v bool
		if err := json.Unmarshal(w.V, &v); err != nil {
			return nil, err
		}
		return NativeBoolToBoolean(v), nil
	case "date":
		var v string
		if err := json.Unmarshal(w.V, &v); err != nil {
			return nil, err
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, err
		}
		return &Date{Value: t}, nil
	case "time":
		var v string
		if err := json.Unmarshal(w.V, &v); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, v)
		if err != nil {
			return nil, err
		}
		return &Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
	case "datetime":
		var v string
		if err := json.Unmarshal(w.V, &v); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, err
		}
		return &DateTime{Value: t}, nil
	case "list":
		var elems []*wireValue
		if err := json.Unmarshal(w.V, &elems); err != nil {
			return nil, err
		}
		list := &List{Elements: make([]Object, len(elems))}
		for i, e := range elems {
			obj, err := fromWire(e, col)
			if err != nil {
				return nil, err
			}
			list.Elements[i] = obj
		}
		return list, nil
	case "pattern":
		var elems []ast.PatternElement
		if err := json.Unmarshal(w.V, &elems); err != nil {
			return nil, err
		}
		p, perr := CompilePattern(elems, 0)
		if perr != nil {
			return nil, perr
		}
		return p, nil
	case "note":
		var id string
		if err := json.Unmarshal(w.V, &id); err != nil {
			return nil, err
		}
		ref := &Note{ID: id, Name: w.Name, Path: w.Path}
		if col != nil {
			n, ok := col.ByID(id)
			if !ok {
				return nil, fmt.Errorf("%s: %w", id, ErrVanishedNote)
			}
			ref.Name = n.Name()
			ref.Path = n.Path
		}
		return ref, nil
	case "undefined":
		return UNDEFINED, nil
	default:
		return nil, fmt.Errorf("unknown stored value type %q", w.T)
	}
}
