package llm

import (
	"log/slog"
	"sync"

	"github.com/longbridgeapp/opencc"
)

var (
	converterOnce sync.Once
	converter     *opencc.OpenCC
)

// s2twp converts simplified Chinese to Taiwan-style traditional. Conversion
// failures degrade to identity so a broken dictionary never blocks a run.
func s2twp(s string) string {
	converterOnce.Do(func() {
		cc, err := opencc.New("s2twp")
		if err != nil {
			slog.Warn("opencc init failed, passing text through", "err", err)
			return
		}
		converter = cc
	})
	if converter == nil {
		return s
	}
	out, err := converter.Convert(s)
	if err != nil {
		return s
	}
	return out
}

const (
	maxRepeatUnit = 12
	keepRepeats   = 6
)

// collapseRepeats truncates pathological repetition: any substring of up to
// maxRepeatUnit runes repeated more than keepRepeats times consecutively is
// cut down to exactly keepRepeats occurrences. Small models occasionally get
// stuck emitting the same phrase until the token limit.
func collapseRepeats(s string) string {
	r := []rune(s)
	out := make([]rune, 0, len(r))
	i := 0
	for i < len(r) {
		collapsed := false
		for unit := 1; unit <= maxRepeatUnit && i+unit*2 <= len(r); unit++ {
			count := 1
			for i+(count+1)*unit <= len(r) && runesEqual(r[i+count*unit:i+(count+1)*unit], r[i:i+unit]) {
				count++
			}
			if count > keepRepeats {
				for k := 0; k < keepRepeats; k++ {
					out = append(out, r[i:i+unit]...)
				}
				i += count * unit
				collapsed = true
				break
			}
		}
		if !collapsed {
			out = append(out, r[i])
			i++
		}
	}
	return string(out)
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Sanitize normalizes one text leaf: traditional-Chinese conversion followed
// by repetition collapse.
func Sanitize(s string) string {
	return collapseRepeats(s2twp(s))
}

// sanitizeValue applies Sanitize to every string leaf of a decoded JSON
// value, recursing through maps and slices.
func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return Sanitize(t)
	case []any:
		for i, e := range t {
			t[i] = sanitizeValue(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = sanitizeValue(e)
		}
		return t
	default:
		return v
	}
}
