package assert

import "fmt"

// NotNil panics when a required dependency was not provided to a constructor.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}

func NotEmptyStr(str string, name string) {
	if str == "" {
		panic(fmt.Sprintf("expected %s to be a non-empty string", name))
	}
}

func NotEmpty[T any](values []T, name string) {
	if len(values) == 0 {
		panic(fmt.Sprintf("expected %s to have at least one element", name))
	}
}
