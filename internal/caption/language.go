package caption

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage picks the language most captions are written in.
func DetectLanguage(intervals []Interval) language.Tag {
	if len(intervals) == 0 {
		return language.Und
	}

	counts := make(map[string]int)
	for _, iv := range intervals {
		info := whatlanggo.Detect(iv.Text)
		if !info.IsReliable() {
			continue
		}
		counts[info.Lang.Iso6391()]++
	}

	var topLang string
	var topCount int
	for lang, count := range counts {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	tag, err := language.Parse(topLang)
	if err != nil {
		return language.Und
	}
	return tag
}
