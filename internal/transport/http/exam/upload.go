package exam

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a flat ASCII file name: accents are
// decomposed and dropped, path separators and whitespace become "_",
// anything else outside [A-Za-z0-9_.-] is removed. The result may be empty.
func SecureFilename(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	flat := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	joined := strings.Join(strings.Fields(flat), "_")
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")
}

// Extension returns the lowercased text after the last dot, or "" when the
// name has none.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

type extensionSet struct {
	allowed map[string]bool
	ordered []string
}

func newExtensionSet(exts []string) extensionSet {
	set := extensionSet{allowed: make(map[string]bool, len(exts))}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" || set.allowed[e] {
			continue
		}
		set.allowed[e] = true
		set.ordered = append(set.ordered, e)
	}
	return set
}

func (s extensionSet) Allows(name string) bool {
	return strings.Contains(name, ".") && s.allowed[Extension(name)]
}

func (s extensionSet) String() string {
	return strings.Join(s.ordered, ", ")
}

// uploadName is "{uuid hex}_{secure name}".
func uploadName(original string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + SecureFilename(original)
}

// saveUpload writes data under dir and returns the path. The caller must
// remove the file.
func saveUpload(dir, original string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, uploadName(original))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}
