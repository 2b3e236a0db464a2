// SPDX-License-Identifier: MIT

package jobs

import (
	"fmt"
	"io"

	"github.com/google/renameio/v2"
)

// writeFileAtomic writes one output file atomically and durably: the content
// goes to a temp file that is fsynced and renamed into place, so a crashed
// run never leaves a truncated output behind.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", path, err)
	}
	defer func() {
		// no-op once committed, removes the temp file on the error paths
		_ = pending.Cleanup()
	}()

	if err := write(pending); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

func writeBytesAtomic(path string, data []byte) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
