package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DirName is the build-scratch directory created at the project root. It
// holds the ledgers and the generated entry sources.
const DirName = ".tierpack"

// Dir returns the scratch directory for a project root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// BasicsFile returns the basics ledger path: basics.<platform>.txt.
func BasicsFile(dir, platform string) string {
	return filepath.Join(dir, fmt.Sprintf("basics.%s.txt", platform))
}

// ModuleFile returns a module ledger path: modules.<module>.<platform>.txt.
func ModuleFile(dir, module, platform string) string {
	return filepath.Join(dir, fmt.Sprintf("modules.%s.%s.txt", module, platform))
}

// ScreenFile returns a screen ledger path:
// modules.<module>_<screen>.<platform>.txt.
func ScreenFile(dir, module, screen, platform string) string {
	return filepath.Join(dir, fmt.Sprintf("modules.%s_%s.%s.txt", module, screen, platform))
}

// Files lists every ledger file for platform in dir, sorted by name.
// A missing directory yields an empty list.
func Files(dir, platform string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	var files []string
	for _, pattern := range []string{"basics.%s.txt", "modules.*.%s.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf(pattern, platform)))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
