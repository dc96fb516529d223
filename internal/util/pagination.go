package util

const DefaultPageSize = 10

// Offset turns 1-based page/size query values into from/limit, clamping
// size to (0, 100].
func Offset(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}
