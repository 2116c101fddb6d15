// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paths

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxNameRunes bounds a sanitized name so full paths stay well under
// platform limits.
const maxNameRunes = 60

const untitled = "untitled"

// reserved holds characters not allowed in file names on at least one
// supported platform. '%' is included so escaped paths can be unescaped
// without ambiguity.
const reserved = `<>:"/\|?*%#`

// windowsReserved are device names Windows refuses as file names.
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Sanitize turns an entity name into a single path element that is safe on
// Linux, macOS and Windows. The result is never empty.
func Sanitize(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	space := false
	for _, r := range name {
		switch {
		case r == utf8.RuneError, unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case strings.ContainsRune(reserved, r):
			r = '_'
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	out := truncateRunes(b.String(), maxNameRunes)
	out = strings.TrimRight(out, ". ")
	if out == "" {
		return untitled
	}
	if stem, _, _ := strings.Cut(out, "."); windowsReserved[strings.ToUpper(stem)] {
		out = "_" + out
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
