package utils

// SafeSlice 最多取前 max 个，max <= 0 时不截断
func SafeSlice[T any](slice []T, max int) []T {
	if max <= 0 || len(slice) < max {
		return slice
	}
	return slice[:max]
}
