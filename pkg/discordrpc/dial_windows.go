//go:build windows

package discordrpc

import (
	"context"
	"fmt"
	"io"
	"os"

	"emperror.dev/errors"
)

// Endpoints lists candidate named pipes in lookup order.
func Endpoints() []string {
	paths := make([]string, 0, maxPipes)
	for i := 0; i < maxPipes; i++ {
		paths = append(paths, fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, i))
	}
	return paths
}

func dialIPC(ctx context.Context) (io.ReadWriteCloser, error) {
	var lastErr error
	for _, path := range Endpoints() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, errors.Append(ErrNotRunning, lastErr)
	}
	return nil, ErrNotRunning
}
