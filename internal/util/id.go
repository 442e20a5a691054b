// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns "<prefix>_<unix millis>_<random>". The millisecond component
// keeps ids roughly time-ordered; the random suffix keeps them unique when
// several are minted in the same millisecond.
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return prefix + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix
}
