// Package xid generates short, human-legible identifiers for packets,
// component activations, and deadlock reports, the way the teacher's
// cmn/cos/uuid.go generates daemon and bucket ids: shortid for the
// legible id, xxhash for a deterministic digest derived from content.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package xid

import (
	"sort"
	"strconv"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

const abc = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	once sync.Once
	sid  *shortid.Shortid
)

func generator() *shortid.Shortid {
	once.Do(func() {
		sid = shortid.MustNew(1, abc, 42)
	})
	return sid
}

// New returns a fresh short id, e.g. for a packet or a component
// activation.
func New() string {
	return generator().MustGenerate()
}

// Digest derives a deterministic identifier from arbitrary content,
// used to name a deadlock report from the sorted set of participant
// component names so repeated detections of the same cycle compare
// equal.
func Digest(parts ...string) string {
	sorted := append([]string(nil), parts...)
	sort.Strings(sorted)
	h := xxhash.New64()
	for _, p := range sorted {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 36)
}
