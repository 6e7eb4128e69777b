package bundle_test

import (
	"bytes"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/gotl/bundle"
	"github.com/mna/gotl/exec"
	"github.com/mna/gotl/funcs"
	"github.com/mna/gotl/value"
)

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	f, err := fs.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFromFSParsesEachFileAsANamedTemplate(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "page.tmpl", `{{template "footer" .}}`)
	writeFile(t, fs, "footer.tmpl", `footer for {{.Name}}`)

	forest, err := bundle.FromFS(fs)
	require.NoError(t, err)

	st := exec.New(forest, funcs.NewRegistry())
	var buf bytes.Buffer
	require.NoError(t, st.ExecuteTemplate(&buf, "page", obj("Name", value.String("Ada"))))
	assert.Equal(t, "footer for Ada", buf.String())
}

func TestFromFSDuplicateTemplateNameErrors(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "a.tmpl", `{{define "shared"}}a{{end}}`)
	writeFile(t, fs, "b.tmpl", `{{define "shared"}}b{{end}}`)

	_, err := bundle.FromFS(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple definition")
}

func TestLoadGitSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("network test skipped with -short")
	}
	_, err := bundle.LoadGit("https://github.com/git-fixtures/basic.git", "master")
	// The fixture repo has no .tmpl files at its root; a clean clone with
	// zero parseable templates is success for this smoke test, a network
	// or clone failure is not.
	require.NoError(t, err)
}

func obj(pairs ...interface{}) value.Value {
	o := value.NewObject()
	for i := 0; i < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return value.FromObject(o)
}
