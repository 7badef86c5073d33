// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package bfme2rpt

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// nameCharmaps is the fallback order for non-UTF-8 player names. The
// community skews Turkish, so Windows-1254 is tried before the western
// code pages.
var nameCharmaps = []*charmap.Charmap{
	charmap.Windows1254,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// decodeText converts raw name bytes to a string. Valid UTF-8 passes
// through; otherwise the first code page that decodes without producing
// a replacement rune wins; if all fail the bytes are kept lossily.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	for _, cm := range nameCharmaps {
		s, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			continue
		}
		if !strings.ContainsRune(string(s), utf8.RuneError) {
			return string(s)
		}
	}
	return string(bytes.ToValidUTF8(b, []byte("�")))
}
