package workspace

import "slices"

type identified interface {
	entityID() string
}

func indexOf[T identified](items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return it.entityID() == id })
}

func removeEntity[T identified](items []T, id string) ([]T, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	return slices.Delete(items, i, i+1), true
}

// removeID drops every occurrence of id from ids and reports how many were removed.
func removeID(ids []string, id string) ([]string, int) {
	before := len(ids)
	ids = slices.DeleteFunc(ids, func(s string) bool { return s == id })
	return ids, before - len(ids)
}

func addID(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
