//go:build !linux

package procio

import "fmt"

// CheckRoot always fails outside Linux: there is no procfs to sample.
func CheckRoot(root string) error {
	return fmt.Errorf("%s: procfs is only available on linux", root)
}
