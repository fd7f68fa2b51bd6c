// Package charset turns raw page bytes into text when servers send
// ambiguous or missing charset signals. Korean boards still commonly serve
// EUC-KR (declared as euc-kr, ks_c_5601-1987, cp949 ...) while everything
// else is treated as UTF-8.
package charset

import (
	"mime"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
)

// sniffLimit bounds how much of the document is scanned for a meta charset
const sniffLimit = 4096

var metaCharsetRegex = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-z0-9_\-:.]+)`)

// Decode converts raw bytes to text. The declared content type wins; if it
// names no Korean charset, the bytes are decoded as UTF-8 and the result is
// searched for a <meta charset> declaration, which is ASCII and therefore
// readable even under the wrong decoding. Decoding never fails: if the
// Korean decoder errors, the UTF-8 text is returned.
func Decode(raw []byte, contentType string) string {
	if IsKoreanLabel(charsetFromContentType(contentType)) {
		if text, ok := decodeKorean(raw); ok {
			return text
		}
		return decodeUTF8(raw)
	}

	utf8Text := decodeUTF8(raw)

	if IsKoreanLabel(SniffMetaCharset(utf8Text)) {
		if text, ok := decodeKorean(raw); ok {
			return text
		}
	}

	return utf8Text
}

// DecodeKorean is Decode under the name the pipeline documents
func DecodeKorean(raw []byte, contentType string) string {
	return Decode(raw, contentType)
}

// IsKoreanLabel reports whether a charset label resolves to the EUC-KR family
func IsKoreanLabel(label string) bool {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return false
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		// cp949 is not a WHATWG label but is what many Korean servers send
		return label == "cp949" || label == "ms949" || label == "uhc"
	}
	name, err := htmlindex.Name(enc)
	return err == nil && name == "euc-kr"
}

// SniffMetaCharset returns the charset named by the first meta tag in the document head
func SniffMetaCharset(text string) string {
	if len(text) > sniffLimit {
		text = text[:sniffLimit]
	}
	match := metaCharsetRegex.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Malformed headers still often carry a usable charset token
		if idx := strings.Index(strings.ToLower(contentType), "charset="); idx >= 0 {
			return strings.Trim(contentType[idx+len("charset="):], `"' ;`)
		}
		return ""
	}
	return params["charset"]
}

func decodeKorean(raw []byte) (string, bool) {
	decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func decodeUTF8(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}
