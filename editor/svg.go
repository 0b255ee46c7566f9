package editor

import (
	"regexp"
	"strings"
)

var (
	svgOpenTag = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	sizeAttr   = regexp.MustCompile(`\s(?:width|height)\s*=\s*("[^"]*"|'[^']*')`)
	aspectAttr = regexp.MustCompile(`\spreserveAspectRatio\s*=\s*("[^"]*"|'[^']*')`)
)

// ScaleToFit drops the fixed width and height of the root <svg> element so the
// visual scales to its container, keeping its aspect ratio centred.
func ScaleToFit(svg string) string {
	loc := svgOpenTag.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	tag := svg[loc[0]:loc[1]]
	tag = sizeAttr.ReplaceAllString(tag, "")
	tag = aspectAttr.ReplaceAllString(tag, "")

	closing := ">"
	body := strings.TrimSuffix(tag, ">")
	if strings.HasSuffix(body, "/") {
		body = strings.TrimSuffix(body, "/")
		closing = "/>"
	}
	tag = strings.TrimRight(body, " ") + ` preserveAspectRatio="xMidYMid meet"` + closing
	return svg[:loc[0]] + tag + svg[loc[1]:]
}
