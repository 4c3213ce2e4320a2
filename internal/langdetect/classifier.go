package langdetect

import "unicode"

type Language string

const (
	English  Language = "english"
	Japanese Language = "japanese"
)

// доля японских символов, выше которой текст считается японским
const japaneseThreshold = 0.3

// CJK-пунктуация, хирагана, катакана, полноширинные формы, иероглифы
var japaneseRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3000, Hi: 0x303f, Stride: 1},
		{Lo: 0x3040, Hi: 0x309f, Stride: 1},
		{Lo: 0x30a0, Hi: 0x30ff, Stride: 1},
		{Lo: 0x4e00, Hi: 0x9faf, Stride: 1},
		{Lo: 0xff00, Hi: 0xff9f, Stride: 1},
	},
}

// Classify returns Japanese when more than 30% of the code points in text fall
// into the Japanese ranges, English otherwise. Empty input is English.
func Classify(text string) Language {
	total, hits := 0, 0
	for _, r := range text {
		total++
		if unicode.Is(japaneseRanges, r) {
			hits++
		}
	}

	if float64(hits) > float64(total)*japaneseThreshold {
		return Japanese
	}
	return English
}

// Valid reports whether l is one of the two known tags.
func (l Language) Valid() bool {
	return l == English || l == Japanese
}
