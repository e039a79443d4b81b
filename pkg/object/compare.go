package object

import (
	"strings"
	"time"
)

// Equals reports structural equality. It is total: values of different
// types are unequal, never an error.
func Equals(a, b Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case *Number:
		return av.Value == b.(*Number).Value
	case *String:
		return av.Value == b.(*String).Value
	case *Boolean:
		return av.Value == b.(*Boolean).Value
	case *Date:
		return av.Value.Equal(b.(*Date).Value)
	case *Time:
		return av.Seconds() == b.(*Time).Seconds()
	case *DateTime:
		return av.Value.Equal(b.(*DateTime).Value)
	case *Note:
		return av.ID == b.(*Note).ID
	case *Pattern:
		return av.Source == b.(*Pattern).Source
	case *Undefined:
		return true
	case *List:
		bv := b.(*List)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	default:
		// Deferred values compare by identity.
		return a == b
	}
}

// Compare orders two values for the comparison operations. The second
// return is false when the pair has no defined order; the caller decides
// how to report that. Dates order against datetimes as midnight.
func Compare(a, b Object) (int, bool) {
	switch av := a.(type) {
	case *Number:
		if bv, ok := b.(*Number); ok {
			return cmpFloat(av.Value, bv.Value), true
		}
	case *String:
		if bv, ok := b.(*String); ok {
			return strings.Compare(av.Value, bv.Value), true
		}
	case *Boolean:
		if bv, ok := b.(*Boolean); ok {
			return cmpBool(av.Value, bv.Value), true
		}
	case *Date:
		switch bv := b.(type) {
		case *Date:
			return cmpTime(av.Value, bv.Value), true
		case *DateTime:
			return cmpTime(av.Value, bv.Value), true
		}
	case *Time:
		if bv, ok := b.(*Time); ok {
			return cmpInt(av.Seconds(), bv.Seconds()), true
		}
	case *DateTime:
		switch bv := b.(type) {
		case *DateTime:
			return cmpTime(av.Value, bv.Value), true
		case *Date:
			return cmpTime(av.Value, bv.Value), true
		}
	}
	return 0, false
}

// typeOrder ranks value types so mixed lists sort deterministically.
var typeOrder = map[ObjectType]int{
	UNDEFINED_OBJ: 0,
	BOOLEAN_OBJ:   1,
	NUMBER_OBJ:    2,
	STRING_OBJ:    3,
	DATE_OBJ:      4,
	TIME_OBJ:      5,
	DATETIME_OBJ:  6,
	NOTE_OBJ:      7,
	LIST_OBJ:      8,
	PATTERN_OBJ:   9,
	LAMBDA_OBJ:    10,
	BUTTON_OBJ:    11,
	SCHEDULE_OBJ:  12,
	VIEW_OBJ:      13,
	ERROR_OBJ:     14,
}

// SortCompare imposes a total order for sorting: values group by type,
// then order within the type. Notes order the way the collection lists
// them, path then name then ID.
func SortCompare(a, b Object) int {
	ra, rb := typeOrder[a.Type()], typeOrder[b.Type()]
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch av := a.(type) {
	case *Undefined:
		return 0
	case *Boolean:
		return cmpBool(av.Value, b.(*Boolean).Value)
	case *Number:
		return cmpFloat(av.Value, b.(*Number).Value)
	case *String:
		return strings.Compare(av.Value, b.(*String).Value)
	case *Date:
		return cmpTime(av.Value, b.(*Date).Value)
	case *Time:
		return cmpInt(av.Seconds(), b.(*Time).Seconds())
	case *DateTime:
		return cmpTime(av.Value, b.(*DateTime).Value)
	case *Note:
		bv := b.(*Note)
		if c := strings.Compare(av.Path, bv.Path); c != 0 {
			return c
		}
		if c := strings.Compare(av.Name, bv.Name); c != 0 {
			return c
		}
		return strings.Compare(av.ID, bv.ID)
	case *List:
		bv := b.(*List)
		if c := cmpInt(len(av.Elements), len(bv.Elements)); c != 0 {
			return c
		}
		for i := range av.Elements {
			if c := SortCompare(av.Elements[i], bv.Elements[i]); c != 0 {
				return c
			}
		}
		return 0
	default:
		return strings.Compare(a.Inspect(), b.Inspect())
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case !a && b:
		return -1
	case a && !b:
		return 1
	default:
		return 0
	}
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
