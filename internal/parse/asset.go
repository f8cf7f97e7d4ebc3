package parse

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"

	"carboncue-backend/internal/engine"
)

var (
	fontTypeRe = regexp.MustCompile(`(?i)^(font/|application/(x-)?font-|application/vnd\.ms-fontobject$)`)
	jsTypeRe   = regexp.MustCompile(`(?i)^(application|text)/(x-)?(javascript|ecmascript)$`)
)

var extensionCategories = map[string]engine.AssetCategory{
	".html":  engine.AssetHTML,
	".htm":   engine.AssetHTML,
	".xhtml": engine.AssetHTML,
	".css":   engine.AssetCSS,
	".js":    engine.AssetJS,
	".mjs":   engine.AssetJS,
	".png":   engine.AssetImage,
	".jpg":   engine.AssetImage,
	".jpeg":  engine.AssetImage,
	".gif":   engine.AssetImage,
	".webp":  engine.AssetImage,
	".avif":  engine.AssetImage,
	".svg":   engine.AssetImage,
	".ico":   engine.AssetImage,
	".bmp":   engine.AssetImage,
	".woff":  engine.AssetFont,
	".woff2": engine.AssetFont,
	".ttf":   engine.AssetFont,
	".otf":   engine.AssetFont,
	".eot":   engine.AssetFont,
}

// ContentTypeCategory maps a Content-Type header value to an asset category.
// ok is false when the header is missing or too generic to decide.
func ContentTypeCategory(contentType string) (engine.AssetCategory, bool) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil || mediaType == "" {
		return "", false
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return engine.AssetHTML, true
	case mediaType == "text/css":
		return engine.AssetCSS, true
	case jsTypeRe.MatchString(mediaType):
		return engine.AssetJS, true
	case strings.HasPrefix(mediaType, "image/"):
		return engine.AssetImage, true
	case fontTypeRe.MatchString(mediaType):
		return engine.AssetFont, true
	case mediaType == "application/octet-stream" || mediaType == "text/plain" || mediaType == "binary/octet-stream":
		return "", false
	default:
		return engine.AssetOther, true
	}
}

// ExtensionCategory maps the path extension of rawURL to an asset category.
// ok is false when the extension is unknown.
func ExtensionCategory(rawURL string) (engine.AssetCategory, bool) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	c, ok := extensionCategories[strings.ToLower(path.Ext(p))]
	return c, ok
}

// Classify picks the category of a fetched asset. The response Content-Type
// wins, then the URL extension, then the hint derived from the referencing
// element. Anything left is other.
func Classify(contentType, rawURL string, hint engine.AssetCategory) engine.AssetCategory {
	if c, ok := ContentTypeCategory(contentType); ok {
		return c
	}
	if c, ok := ExtensionCategory(rawURL); ok {
		return c
	}
	if hint != "" {
		return hint
	}
	return engine.AssetOther
}
