// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"encoding/json"
	"fmt"
)

// jsonArg encodes v for a JSONB parameter. nil slices and maps are stored
// as empty collections rather than JSON null.
func jsonArg(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode jsonb: %w", err)
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

// jsonScan decodes a scanned JSONB column into v.
func jsonScan(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}
