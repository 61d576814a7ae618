//go:build unix

package api

import "golang.org/x/sys/unix"

// usedMB reports the space used on the filesystem holding path, in MiB.
func usedMB(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	used := (uint64(st.Blocks) - uint64(st.Bfree)) * uint64(st.Bsize)
	return int64(used / (1024 * 1024)), nil
}
