package kpi

// Store persists KPI records.
type Store interface {
	Add(Record) error
	Query(trainID, from, to int) ([]Record, error)
}

// Window aligns tick to the start of its window of the given size.
func Window(tick, size int) int {
	if size <= 0 {
		return 0
	}
	if tick < 0 {
		return -((-tick + size - 1) / size) * size
	}
	return tick - tick%size
}
