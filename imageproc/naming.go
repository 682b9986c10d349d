package imageproc

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeModel makes a product model safe for use in filenames: every
// rune other than a letter, a digit, '-' or '_' becomes '_'.
func SanitizeModel(model string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, model)
}

// FileName is the stored name of the n-th saved image, e.g. RT-AX88U_03.jpg.
func FileName(model string, n int) string {
	return fmt.Sprintf("%s_%02d.jpg", SanitizeModel(model), n)
}
