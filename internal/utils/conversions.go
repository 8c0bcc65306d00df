package utils

import "fmt"

// ToStringSlice flattens a decoded JSON value into strings. Backend field errors arrive
// either as a list of messages or as a single message.
func ToStringSlice(value any) []string {
	stringSlice := make([]string, 0)
	switch v := value.(type) {
	case nil:
	case string:
		stringSlice = append(stringSlice, v)
	case []string:
		stringSlice = append(stringSlice, v...)
	case []any:
		for _, item := range v {
			stringSlice = append(stringSlice, ToStringSlice(item)...)
		}
	default:
		stringSlice = append(stringSlice, fmt.Sprint(v))
	}
	return stringSlice
}
