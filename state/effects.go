// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ReadEffectsSave returns the raw saved effect stack.
// A missing file is not an error: ok is false and the caller uses its defaults.
func ReadEffectsSave(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read effects save: %w", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// WriteEffectsSave atomically replaces the saved effect stack.
func WriteEffectsSave(path string, data []byte) error {
	if err := WriteAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write effects save: %w", err)
	}
	return nil
}
