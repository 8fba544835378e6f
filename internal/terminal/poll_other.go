//go:build !unix

package terminal

import "os"

func inputReady(_ *os.File) (bool, error) {
	return false, nil
}
