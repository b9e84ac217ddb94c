package extract

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()

	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// toMarkdown converts page HTML to structured markdown after sanitising
// it. If conversion fails or produces empty output, returns the plain-text
// fallback.
func toMarkdown(rawHTML, sourceURL, fallback string) string {
	if rawHTML == "" {
		return fallback
	}
	clean := sanitizer.Sanitize(rawHTML)
	result, err := mdConverter.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(result) == "" {
		return fallback
	}
	return strings.TrimSpace(result)
}
