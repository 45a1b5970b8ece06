package types

import "fmt"

// UnifyError reports a structural mismatch between two types that were
// expected to describe the same value.
type UnifyError struct {
	Expected, Actual *Type
	Path             []string
}

func (e *UnifyError) Error() string {
	where := ""
	if len(e.Path) > 0 {
		where = fmt.Sprintf(" at %v", e.Path)
	}
	return fmt.Sprintf("type mismatch%s: expected %s, got %s", where, e.Expected, e.Actual)
}

// Unify checks structurally that actual matches expected, returning a
// *UnifyError on mismatch. Dynamic unifies with anything; lists, sets,
// equal-length tuples and callables are compared element by element; a
// shaped actual mapping must carry every non-Never field of the expected
// shape, and may carry more.
func Unify(expected, actual *Type) error {
	return unifyPath(expected, actual, nil)
}

func unifyPath(expected, actual *Type, path []string) error {
	if expected.Tag == TagDynamic || actual.Tag == TagDynamic {
		return nil
	}
	if expected.Equal(actual) {
		return nil
	}

	switch {
	case expected.Tag == TagList && actual.Tag == TagList:
		return unifyPath(expected.Elems[0], actual.Elems[0], append(path, "[]"))
	case expected.Tag == TagSet && actual.Tag == TagSet:
		return unifyPath(expected.Elems[0], actual.Elems[0], append(path, "{}"))
	case expected.Tag == TagTuple && actual.Tag == TagTuple && len(expected.Elems) == len(actual.Elems):
		for i := range expected.Elems {
			if err := unifyPath(expected.Elems[i], actual.Elems[i], append(path, fmt.Sprintf("[%d]", i))); err != nil {
				return err
			}
		}
		return nil
	case expected.Tag == TagMapping && actual.Tag == TagMapping:
		if expected.Shape != nil && actual.Shape != nil {
			for _, ef := range expected.Shape.Fields {
				if ef.Presence == Never {
					continue
				}
				af, ok := actual.Shape.Lookup(ef.Key)
				if !ok {
					return &UnifyError{Expected: expected, Actual: actual, Path: append(path, ef.Key)}
				}
				if err := unifyPath(ef.Value, af.Value, append(path, ef.Key)); err != nil {
					return err
				}
			}
			return nil
		}
		if err := unifyPath(expected.Key, actual.Key, append(path, "key")); err != nil {
			return err
		}
		return unifyPath(expected.Value, actual.Value, append(path, "value"))
	case expected.Tag == TagCallable && actual.Tag == TagCallable && len(expected.Params) == len(actual.Params):
		for i := range expected.Params {
			if err := unifyPath(expected.Params[i], actual.Params[i], append(path, fmt.Sprintf("param%d", i))); err != nil {
				return err
			}
		}
		return unifyPath(expected.Ret, actual.Ret, append(path, "return"))
	}

	return &UnifyError{Expected: expected, Actual: actual, Path: path}
}
