package snapshot

import (
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/sweqa/trx/internal/config"
)

type seedDoc struct {
	path    string
	content string
}

// Scaffold creates the data directory tree with empty documents. Existing
// files are left untouched. It returns the paths it created.
func Scaffold(fs billy.Filesystem, layout config.DataConfig) ([]string, error) {
	for _, dir := range []string{layout.Requirements, layout.TestCases, layout.Executions, layout.Releases} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	docs := []seedDoc{
		{path.Join(layout.Requirements, RequirementsFile), "{}\n"},
		{path.Join(layout.Requirements, ComponentsFile), "{}\n"},
		{path.Join(layout.Requirements, InterfacesFile), "{}\n"},
		{path.Join(layout.Requirements, UnitSpecsFile), "{}\n"},
		{path.Join(layout.Releases, ReleaseInfoFile), "{\"releases\": []}\n"},
	}
	for _, f := range testCaseFiles {
		docs = append(docs, seedDoc{path.Join(layout.TestCases, f.file), fmt.Sprintf("{%q: []}\n", f.key)})
	}

	var created []string
	for _, d := range docs {
		if _, err := fs.Stat(d.path); err == nil {
			continue
		}
		if err := util.WriteFile(fs, d.path, []byte(d.content), 0644); err != nil {
			return created, fmt.Errorf("writing %s: %w", d.path, err)
		}
		created = append(created, d.path)
	}
	return created, nil
}
