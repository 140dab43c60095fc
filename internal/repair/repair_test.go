package repair

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"byweb/internal/config"
	"byweb/internal/xmltree"
)

func writeShard(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "byweb7.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func readShard(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestNewPlan(t *testing.T) {
	plan, err := NewPlan([]config.RepairConfig{
		{Shard: 3, Strategies: []string{"close_root", "encode_url", "close_root"}},
		{Shard: 9, Strategies: []string{"close_root"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []Strategy{EncodeURL, CloseRoot}, plan.For(3))
	assert.Equal(t, []Strategy{CloseRoot}, plan.For(9))
	assert.Nil(t, plan.For(0))
	assert.Equal(t, 2, plan.Len())
}

func TestNewPlan_UnknownStrategy(t *testing.T) {
	_, err := NewPlan([]config.RepairConfig{{Shard: 1, Strategies: []string{"fix_everything"}}})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestNilPlan(t *testing.T) {
	var p *Plan
	assert.Nil(t, p.For(1))
	assert.Equal(t, 0, p.Len())
}

func TestCloseRootTag(t *testing.T) {
	path := writeShard(t, "<dataset>\n<document><docID>1</docID></document>\n")

	changed, err := CloseRootTag(path, "dataset")
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = xmltree.ParseFile(path)
	require.NoError(t, err)

	// A second pass leaves the file alone.
	before := readShard(t, path)
	changed, err = CloseRootTag(path, "dataset")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, readShard(t, path))
}

func TestCloseRootTag_AlreadyClosed(t *testing.T) {
	path := writeShard(t, "<dataset></dataset>  \n\n")

	changed, err := CloseRootTag(path, "dataset")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEncodeField(t *testing.T) {
	in := strings.Join([]string{
		"<dataset>",
		"<document>",
		"<docURL>http://example.ru/?a=1&b=<2></docURL>",
		"<docID>5</docID>",
		"</document>",
		"<document><docURL>http://x.ru/&</docURL><docURL>http://y.ru/<</docURL></document>",
		"</dataset>",
	}, "\n")

	var out bytes.Buffer

	n, err := EncodeField(strings.NewReader(in), &out, "docURL")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got := out.String()
	assert.Contains(t, got, "<docURL>"+base64.StdEncoding.EncodeToString([]byte("http://example.ru/?a=1&b=<2>"))+"</docURL>")
	assert.Contains(t, got, base64.StdEncoding.EncodeToString([]byte("http://y.ru/<")))
	assert.True(t, strings.HasSuffix(got, "</dataset>"), "last line without newline is kept")

	_, err = xmltree.ParseString(got)
	assert.NoError(t, err)
}

func TestRepairer_Apply(t *testing.T) {
	path := writeShard(t, "<dataset>\n<document><docURL>http://a.ru/?q=<b></docURL><docID>1</docID></document>\n")

	_, err := xmltree.ParseFile(path)
	require.Error(t, err, "fixture must be broken before the repair")

	r := NewRepairer("dataset", "docURL")

	res, err := r.Apply(path, []Strategy{EncodeURL, CloseRoot})
	require.NoError(t, err)
	assert.Equal(t, []Strategy{EncodeURL, CloseRoot}, res.Applied)
	assert.Equal(t, 1, res.URLsEncoded)
	assert.True(t, res.RootClosed)

	root, err := xmltree.ParseFile(path)
	require.NoError(t, err)

	url, ok := xmltree.LookupText(xmltree.Convert(root), "dataset.document.docURL")
	require.True(t, ok)

	decoded, err := base64.StdEncoding.DecodeString(url)
	require.NoError(t, err)
	assert.Equal(t, "http://a.ru/?q=<b>", string(decoded))

	_, err = os.Stat(path + ".repair")
	assert.True(t, os.IsNotExist(err))
}

func TestRepairer_ApplyUnknown(t *testing.T) {
	path := writeShard(t, "<dataset></dataset>")

	_, err := NewRepairer("dataset", "docURL").Apply(path, []Strategy{"bogus"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
