package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize схлопывает пробелы и сводит диакритику латиницы к базовым
// буквам. Другие письменности не трогаются: "й" остаётся "й".
// Регистр не меняется: сравнение без учёта регистра — забота шаблонов.
func Normalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return foldLatinAccents(text)
}

// foldLatinAccents разлагает строку по NFD и снимает комбинируемые знаки
// только с латинских базовых букв: "Forlì" → "Forli".
func foldLatinAccents(text string) string {
	decomposed := norm.NFD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	latinBase := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if latinBase {
				continue
			}
		} else {
			latinBase = unicode.Is(unicode.Latin, r)
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}
