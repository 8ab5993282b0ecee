//go:build linux

package procio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckRoot verifies that root is a mounted procfs. A non-procfs root still
// works for sampling (tests use plain directories), so callers treat the
// error as a warning.
func CheckRoot(root string) error {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return fmt.Errorf("statfs %s: %w", root, err)
	}
	if st.Type != unix.PROC_SUPER_MAGIC {
		return fmt.Errorf("%s is not a procfs mount (magic %#x)", root, st.Type)
	}
	return nil
}
