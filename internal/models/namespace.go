package models

import "strings"

// Base field names written by the stat step. Probe output can never produce
// one of these keys because every probe key is namespace + "_" + name and
// NewNamespace refuses any namespace that prefixes a base name.
const (
	FieldFilename            = "filename"
	FieldFilepath            = "filepath"
	FieldDirectory           = "directory"
	FieldExtension           = "extension"
	FieldFileType            = "file_type"
	FieldSizeBytes           = "size_bytes"
	FieldSizeMB              = "size_mb"
	FieldCreated             = "created"
	FieldModified            = "modified"
	FieldAccessed            = "accessed"
	FieldPermissions         = "permissions"
	FieldExtractionTimestamp = "extraction_timestamp"

	// FieldError is the only key of a record whose existence or base stat
	// step failed.
	FieldError = "error"
)

// HashField returns the base field name holding a content hash computed
// with algorithm, e.g. "md5_hash".
func HashField(algorithm string) string {
	return strings.ToLower(algorithm) + "_hash"
}

// HashAlgorithms lists the supported content hash algorithms.
var HashAlgorithms = []string{"md5", "sha1", "sha256"}

// BaseFields returns the base field names in record order for the given
// hash algorithm.
func BaseFields(hashAlgorithm string) []string {
	return []string{
		FieldFilename,
		FieldFilepath,
		FieldDirectory,
		FieldExtension,
		FieldFileType,
		FieldSizeBytes,
		FieldSizeMB,
		FieldCreated,
		FieldModified,
		FieldAccessed,
		FieldPermissions,
		HashField(hashAlgorithm),
		FieldExtractionTimestamp,
	}
}

var reservedNames = func() map[string]struct{} {
	names := map[string]struct{}{FieldError: {}}
	for _, algo := range HashAlgorithms {
		for _, name := range BaseFields(algo) {
			names[name] = struct{}{}
		}
	}
	return names
}()

// IsBaseField reports whether key is one of the reserved base field names.
func IsBaseField(key string) bool {
	_, ok := reservedNames[key]
	return ok
}

// Namespace is the prefix under which a probe's fields are merged into a
// record. The zero value is not valid; use NewNamespace or one of the
// predeclared namespaces.
type Namespace struct {
	name string
}

var (
	NamespaceImage   = NewNamespace("image")
	NamespaceExif    = NewNamespace("exif")
	NamespaceMedia   = NewNamespace("media")
	NamespaceGeneral = NewNamespace("general")
)

// NewNamespace normalises s into a namespace. Characters outside [a-z0-9]
// collapse to underscores. A namespace that would produce keys starting like
// a base field ("size" -> "size_bytes") is moved under "media_".
func NewNamespace(s string) Namespace {
	name := sanitize(s)
	if name == "" {
		name = "unknown"
	}
	if shadowsBaseField(name) {
		name = "media_" + name
	}
	return Namespace{name: name}
}

func shadowsBaseField(name string) bool {
	prefix := name + "_"
	for reserved := range reservedNames {
		if strings.HasPrefix(reserved, prefix) {
			return true
		}
	}
	return false
}

func sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// String returns the bare namespace name.
func (n Namespace) String() string { return n.name }

// Prefix returns the key prefix for the namespace, including the trailing
// underscore.
func (n Namespace) Prefix() string { return n.name + "_" }

// Key joins the namespace and a probe-local field name.
func (n Namespace) Key(name string) string { return n.Prefix() + name }

// ErrorKey is the key used for the namespace's failure marker.
func (n Namespace) ErrorKey() string { return n.Key(FieldError) }
