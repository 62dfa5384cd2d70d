package llm

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.txt
var templateFS embed.FS

// commentMarker separates the template's descriptive header from the prompt
// body; only the body is sent to the model.
const commentMarker = "<commentblockmarker>###</commentblockmarker>"

// Render loads the template named key and substitutes !<INPUT k>! markers
// with the k-th argument.
func Render(key string, args []string) (string, error) {
	b, err := templateFS.ReadFile("templates/" + key + ".txt")
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", key, err)
	}
	s := string(b)
	for i, a := range args {
		s = strings.ReplaceAll(s, fmt.Sprintf("!<INPUT %d>!", i), a)
	}
	if _, after, found := strings.Cut(s, commentMarker); found {
		s = after
	}
	return strings.TrimSpace(s), nil
}
