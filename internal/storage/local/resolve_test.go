package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ondrasimku/file-server-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) (*resolver, string) {
	t.Helper()

	root := t.TempDir()
	res, err := newResolver(root, stagingDir)
	require.NoError(t, err)
	return res, res.root
}

func Test_U_Resolve(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Name        string
		ExpectedRel string
		ExpectedErr error
	}{
		"plain name": {
			Name:        "report.pdf",
			ExpectedRel: "report.pdf",
		},
		"nested name": {
			Name:        "reports/2024/q1.pdf",
			ExpectedRel: "reports/2024/q1.pdf",
		},
		"leading slash is relative to root": {
			Name:        "/etc/passwd",
			ExpectedRel: "etc/passwd",
		},
		"backslashes are separators": {
			Name:        `reports\q1.pdf`,
			ExpectedRel: "reports/q1.pdf",
		},
		"dot segments inside root": {
			Name:        "a/./b/../c.txt",
			ExpectedRel: "a/c.txt",
		},
		"parent escape": {
			Name:        "../secret.txt",
			ExpectedErr: storage.ErrPathTraversal,
		},
		"deep parent escape": {
			Name:        "a/b/../../../../etc/passwd",
			ExpectedErr: storage.ErrPathTraversal,
		},
		"backslash parent escape": {
			Name:        `..\..\secret.txt`,
			ExpectedErr: storage.ErrPathTraversal,
		},
		"bare parent": {
			Name:        "..",
			ExpectedErr: storage.ErrPathTraversal,
		},
		"staging area": {
			Name:        ".staging/abc",
			ExpectedErr: storage.ErrPathTraversal,
		},
		"empty": {
			Name:        "",
			ExpectedErr: storage.ErrMissingFilename,
		},
		"only slashes": {
			Name:        "///",
			ExpectedErr: storage.ErrMissingFilename,
		},
		"nul byte": {
			Name:        "a\x00b",
			ExpectedErr: storage.ErrMissingFilename,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			res, root := newTestResolver(t)

			got, err := res.Resolve(tt.Name)

			if tt.ExpectedErr != nil {
				assert.ErrorIs(t, err, tt.ExpectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.ExpectedRel)), got)

			info, err := os.Stat(filepath.Dir(got))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}
}

func Test_U_ResolveNoDirectory(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)

	got, err := res.Resolve("file.txt")
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(got))
}

func Test_U_ResolveIdempotent(t *testing.T) {
	t.Parallel()

	res, _ := newTestResolver(t)

	first, err := res.Resolve("a/b/c.txt")
	require.NoError(t, err)
	second, err := res.Resolve("a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func Test_U_ResolveRejectedCreatesNothing(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	require.NoError(t, os.Mkdir(root, 0755))
	res, err := newResolver(root, stagingDir)
	require.NoError(t, err)

	_, err = res.Resolve("../sibling/file.txt")
	assert.ErrorIs(t, err, storage.ErrPathTraversal)

	_, err = os.Stat(filepath.Join(parent, "sibling"))
	assert.True(t, os.IsNotExist(err))
}

func Test_U_ResolveSymlinkEscape(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	_, err := res.Resolve("link/file.txt")
	assert.ErrorIs(t, err, storage.ErrPathTraversal)

	_, err = res.Resolve("link/nested/file.txt")
	assert.ErrorIs(t, err, storage.ErrPathTraversal)
	_, err = os.Stat(filepath.Join(outside, "nested"))
	assert.True(t, os.IsNotExist(err))
}

func Test_U_ResolveSymlinkInsideRoot(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "real"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))

	got, err := res.Resolve("alias/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "real", "file.txt"), got)
}

func Test_U_ResolveFileAsDirectory(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	_, err := res.Resolve("a.txt/b.txt")
	assert.ErrorIs(t, err, storage.ErrNotFile)

	_, err = res.Locate("a.txt/b.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_U_ResolveTrackedCreated(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "existing"), 0755))

	_, created, err := res.resolveTracked("existing/new/deeper/file.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "existing", "new"),
		filepath.Join(root, "existing", "new", "deeper"),
	}, created)

	_, created, err = res.resolveTracked("existing/new/deeper/file.txt")
	require.NoError(t, err)
	assert.Empty(t, created)
}

func Test_U_Locate(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)

	_, err := res.Locate("missing/dir/file.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = os.Stat(filepath.Join(root, "missing"))
	assert.True(t, os.IsNotExist(err), "Locate must not create directories")

	_, err = res.Locate("../x")
	assert.ErrorIs(t, err, storage.ErrPathTraversal)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "present"), 0755))
	got, err := res.Locate("present/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "present", "file.txt"), got)
}

func Test_U_Mkdir(t *testing.T) {
	t.Parallel()

	res, root := newTestResolver(t)

	got, err := res.Mkdir("images/thumbs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "images", "thumbs"), got)
	assert.DirExists(t, got)

	_, err = res.Mkdir("../outside")
	assert.ErrorIs(t, err, storage.ErrPathTraversal)
}
