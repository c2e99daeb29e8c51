package analyze

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// ToMarkdown converts HTML to Markdown, keeping tables as pipe tables so
// price columns survive.
func ToMarkdown(src string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())

	markdown, err := converter.ConvertString(src)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}
