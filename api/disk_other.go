//go:build !unix

package api

import "errors"

func usedMB(string) (int64, error) {
	return 0, errors.New("disk usage not supported on this platform")
}
