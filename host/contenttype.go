package host

import (
	"mime"
	"path"
	"strings"
)

// ContentTypes maps extensions (with the dot) to content types.  These
// take precedence over the system's MIME tables.
var ContentTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".txt":  "text/plain",
	".css":  "text/css",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".js":   "application/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".gif":  "image/gif",
}

// ContentTypeFor computes the response content type for a request
// path based on its extension.  Parameters (like charset) are
// dropped.  If the extension is unknown or absent, the result is
// fallback.
func ContentTypeFor(p, fallback string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return fallback
	}
	if ct, have := ContentTypes[ext]; have {
		return ct
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return fallback
	}
	if i := strings.Index(ct, ";"); 0 <= i {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// splitCharset separates a charset parameter from a content type.  If
// there is no charset parameter, the given charset is returned.
func splitCharset(ct, charset string) (string, string) {
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct, charset
	}
	if cs, have := params["charset"]; have {
		charset = cs
	}
	return mt, charset
}
