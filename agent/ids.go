package agent

// IDAllocator hands out monotonically increasing agent ids. Each environment
// owns one, so ids are unique per simulation rather than per process.
type IDAllocator struct {
	next int
}

func (ids *IDAllocator) Next() (id int) {
	id = ids.next
	ids.next++
	return
}
