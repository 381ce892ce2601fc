package posts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

const (
	// AttachmentURLPrefix is the public path prefix of stored attachments.
	AttachmentURLPrefix = "/files/"
	attachmentKeyPrefix = "files/"
	postKeyPrefix       = "posts/"
	postKeySuffix       = ".md"
)

// AttachmentName builds the stored file name "<stem>_<suffix><ext>". With an
// empty suffix the first 12 hex digits of the content's SHA-256 are used, so
// equal uploads map to the same name and different content never collides.
func AttachmentName(data []byte, fileName, suffix string) (string, error) {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	ext := sanitizeFileName(path.Ext(base))
	stem := sanitizeFileName(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" || stem == "." {
		return "", &ValidationError{Fields: map[string]string{"file_name": "required"}}
	}

	suffix = sanitizeFileName(suffix)
	if suffix == "" {
		sum := sha256.Sum256(data)
		suffix = hex.EncodeToString(sum[:])[:12]
	}
	return fmt.Sprintf("%s_%s%s", stem, suffix, ext), nil
}

// AttachmentKey maps a public attachment path (or bare name) to its storage
// key and rejects anything that would escape the attachment namespace.
func AttachmentKey(p string) (string, error) {
	name := strings.TrimPrefix(p, AttachmentURLPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", &ValidationError{Fields: map[string]string{"path": "invalid attachment path"}}
	}
	return attachmentKeyPrefix + name, nil
}

func attachmentURL(key string) string {
	return AttachmentURLPrefix + strings.TrimPrefix(key, attachmentKeyPrefix)
}

func postKey(id string) string {
	return postKeyPrefix + id + postKeySuffix
}

func sanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}
