package ftphandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListLineUnix(t *testing.T) {
	pl, ok := parseListLine("drwxr-xr-x   4 ftp  ftp      4096 Jan 10 12:00 pub")
	require.True(t, ok)
	assert.Equal(t, "pub", pl.Name)
	require.NotNil(t, pl.IsDir)
	assert.True(t, *pl.IsDir)

	pl, ok = parseListLine("-rw-r--r--   1 ftp  ftp     19823 Jan 10 12:00 README.txt")
	require.True(t, ok)
	assert.Equal(t, "README.txt", pl.Name)
	require.NotNil(t, pl.IsDir)
	assert.False(t, *pl.IsDir)
}

func TestParseListLineUnixSymlinkIsUnknown(t *testing.T) {
	pl, ok := parseListLine("lrwxrwxrwx   1 ftp  ftp         7 Jan 10 12:00 current -> pub/1.2")
	require.True(t, ok)
	assert.Equal(t, "current", pl.Name)
	assert.Nil(t, pl.IsDir)
}

func TestParseListLineMSDOS(t *testing.T) {
	pl, ok := parseListLine("10-23-12  01:38PM       <DIR>          pub")
	require.True(t, ok)
	assert.Equal(t, "pub", pl.Name)
	require.NotNil(t, pl.IsDir)
	assert.True(t, *pl.IsDir)

	pl, ok = parseListLine("10-23-12  01:38PM             12348 readme.txt")
	require.True(t, ok)
	assert.Equal(t, "readme.txt", pl.Name)
	require.NotNil(t, pl.IsDir)
	assert.False(t, *pl.IsDir)
}

func TestParseListLineEPLF(t *testing.T) {
	pl, ok := parseListLine("+i8388621.29609,m824255902,r,s1024,\tfile.txt")
	require.True(t, ok)
	assert.Equal(t, "file.txt", pl.Name)
	require.NotNil(t, pl.IsDir)
	assert.False(t, *pl.IsDir)

	pl, ok = parseListLine("+i8388621.44468,m825718503,/,\tpub")
	require.True(t, ok)
	assert.Equal(t, "pub", pl.Name)
	require.NotNil(t, pl.IsDir)
	assert.True(t, *pl.IsDir)
}

func TestParseListLineUnrecognizedIsSkipped(t *testing.T) {
	_, ok := parseListLine("total 24")
	assert.False(t, ok)

	_, ok = parseListLine("")
	assert.False(t, ok)

	_, ok = parseListLine("????garbage")
	assert.False(t, ok)
}
