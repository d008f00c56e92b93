package restyutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput map[string]string

func (m memoryOutput) Write(id string, contents string) {
	m[id] = contents
}

func TestDumpResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Portal", "studzone")
		io.WriteString(w, "<html>attendance</html>")
	}))
	defer srv.Close()

	out := memoryOutput{}
	client := resty.New()
	DumpResponses(client, out)

	for range 2 {
		_, err := client.R().Get(srv.URL + "/AttWfPercView.aspx")
		require.NoError(t, err)
	}

	require.Len(t, out, 2)
	require.Contains(t, out["1"], "GET "+srv.URL+"/AttWfPercView.aspx")
	require.Contains(t, out["1"], "X-Portal: studzone")
	require.Contains(t, out["2"], "<html>attendance</html>")
}

func TestDumpResponsesNilOutput(t *testing.T) {
	client := resty.New()
	DumpResponses(client, nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.Equal(t, dir, out.Dir())

	_, err = os.Stat(filepath.Join(dir, "stale.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	out.Write("1", "contents")
	contents, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(contents))
}
