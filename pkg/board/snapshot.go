package board

// cloneSlice returns a shallow copy of the list so local edits never alias
// the snapshot taken before a remote write.
func cloneSlice[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}

// optimistic applies mutate to the list, then runs the remote write. When the
// write fails the list is restored to the pre-mutation snapshot verbatim.
func optimistic[T any](list *[]T, mutate func([]T) []T, remote func() error) error {
	snap := *list
	*list = mutate(cloneSlice(snap))

	if err := remote(); err != nil {
		*list = snap
		return err
	}
	return nil
}
