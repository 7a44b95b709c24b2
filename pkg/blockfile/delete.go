package blockfile

// Delete removes the named members. Each member's blocks return to the
// free list and its directory slot is closed up, preserving the order
// of the remaining entries. Unknown names are reported per member and
// the operation continues.
func (a *Archive) Delete(names []string) ([]Result, error) {
	t, _, err := a.load()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(names))

	for _, name := range names {
		idx := findEntry(t, name)
		if idx < 0 {
			results = append(results, Result{Name: name, Err: ErrNotFound})

			continue
		}

		for _, off := range t.Entries[idx].Blocks {
			if err := releaseBlock(t, off); err != nil {
				return nil, err
			}

			a.debugf("released block at %d from %q", off, name)
		}

		t.Entries = append(t.Entries[:idx], t.Entries[idx+1:]...)

		results = append(results, Result{Name: name})
	}

	if err := a.store(t); err != nil {
		return nil, err
	}

	return results, nil
}
