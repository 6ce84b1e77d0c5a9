package cli

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashers"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestList(t *testing.T) {
	out, err := run(t, "list", "--category", "password")
	require.NoError(t, err)
	assert.Equal(t, "argon2id", strings.Fields(out)[0])
	assert.NotContains(t, out, "sha256")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "crc-32/iso-hdlc")
	assert.Contains(t, out, "blake3")
	assert.Regexp(t, `siphash\s+keyed\s+key required`, out)

	_, err = run(t, "list", "--category", "bogus")
	assert.Error(t, err)
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	abc := writeFile(t, dir, "abc.txt", "abc")
	data := writeFile(t, dir, "data.bin", "abcd")

	out, err := run(t, "hash", "--algo", "sha256", abc, data+"#1-3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, sha256Hex("abc")+" 3 abc.txt", lines[0])
	assert.Equal(t, sha256Hex("bc")+" 2 data.bin#1-3", lines[1])

	out, err = run(t, "hash", "--algo", "sha256", "--increment", "50%", data)
	require.NoError(t, err)
	assert.Equal(t,
		sha256Hex("ab")+" 2 data.bin#0%-50%\n"+sha256Hex("cd")+" 2 data.bin#50%-100%\n",
		out)

	out, err = run(t, "hash", "--algo", "sha256", "--format", "base64", abc)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("abc"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(sum[:])+" 3 abc.txt\n", out)
}

func TestHashErrors(t *testing.T) {
	dir := t.TempDir()
	abc := writeFile(t, dir, "abc.txt", "abc")

	_, err := run(t, "hash", "--algo", "siphash", abc)
	assert.ErrorIs(t, err, config.ErrInvalidParameter)

	_, err = run(t, "hash", "--algo", "no-such-hash", abc)
	assert.Error(t, err)

	_, err = run(t, "hash", "--format", "nope", abc)
	assert.Error(t, err)

	_, err = run(t, "hash", "--seed", "x", "--algo", "cityhash64", abc)
	assert.ErrorIs(t, err, config.ErrInvalidParameter)

	_, err = run(t, "hash", filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = run(t, "hash", "--increment", "50%", abc+"#1-2")
	assert.Error(t, err)
}

func TestHashKeyedAndSeeded(t *testing.T) {
	dir := t.TempDir()
	abc := writeFile(t, dir, "abc.txt", "abc")

	text, err := run(t, "hash", "--algo", "siphash", "--key", "0123456789abcdef", abc)
	require.NoError(t, err)
	hexed, err := run(t, "hash", "--algo", "siphash", "--key-hex", hex.EncodeToString([]byte("0123456789abcdef")), abc)
	require.NoError(t, err)
	assert.Equal(t, text, hexed)

	a, err := run(t, "hash", "--algo", "cityhash64", "--seed", "1", abc)
	require.NoError(t, err)
	b, err := run(t, "hash", "--algo", "cityhash64", "--seed", "0x2", abc)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyExpect(t *testing.T) {
	dir := t.TempDir()
	abc := writeFile(t, dir, "abc.txt", "abc")

	out, err := run(t, "verify", "--algo", "sha256", "--expect", strings.ToUpper(sha256Hex("abc")), abc)
	require.NoError(t, err)
	assert.Contains(t, out, "abc.txt: OK")

	out, err = run(t, "verify", "--algo", "sha256", "--expect", sha256Hex("abd"), abc)
	assert.ErrorIs(t, err, ErrVerifyFailed)
	assert.Contains(t, out, "FAILED")

	_, err = run(t, "verify", "--algo", "sha256", "--expect", "zz", abc)
	assert.Error(t, err)

	_, err = run(t, "verify", "--algo", "sha256", abc)
	assert.Error(t, err)
}

func TestVerifyCheckFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first file")
	writeFile(t, dir, "b.txt", "second file")
	sums := filepath.Join(dir, "SUMS")

	_, err := run(t, "hash", "--algo", "blake3", "--bits", "512", "--output", sums,
		filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")+"#0-6")
	require.NoError(t, err)

	out, err := run(t, "verify", "--algo", "blake3", "--bits", "512", "--check", sums)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, ": OK"))

	writeFile(t, dir, "a.txt", "changed")
	out, err = run(t, "verify", "--algo", "blake3", "--bits", "512", "--check", sums)
	assert.ErrorIs(t, err, ErrVerifyFailed)
	assert.Contains(t, out, "a.txt: FAILED")
	assert.Contains(t, out, "b.txt#0-6: OK")
}

func TestCRCProfilesFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "check.txt", "123456789")
	profiles := writeFile(t, dir, "profiles.yaml", `profiles:
  - name: CRC-16/GENIBUS
    width: 16
    poly: 0x1021
    init: 0xffff
    xorout: 0xffff
    check: 0xd64e
`)

	out, err := run(t, "hash", "--crc-profiles", profiles, "--algo", "crc-16/genibus", input)
	require.NoError(t, err)
	assert.Equal(t, "d64e 9 check.txt\n", out)

	bad := writeFile(t, dir, "bad.yaml", `profiles:
  - name: CRC-16/BROKEN
    width: 16
    poly: 0x1021
    check: 0x1234
`)
	_, err = run(t, "hash", "--crc-profiles", bad, "--algo", "crc-16/broken", input)
	assert.ErrorIs(t, err, config.ErrInvalidParameter)
}

func TestProgressBars(t *testing.T) {
	dir := t.TempDir()
	abc := writeFile(t, dir, "abc.txt", "abc")

	cmd := New()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"hash", "--algo", "sha256", "--progress", abc})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, sha256Hex("abc")+" 3 abc.txt\n", out.String())
	assert.Contains(t, errOut.String(), "Hashing abc.txt")
}

func TestKeyWipedAfterInstantiation(t *testing.T) {
	o := &algoOptions{algo: "siphash", keyHex: hex.EncodeToString([]byte("0123456789abcdef"))}
	opts, err := o.options()
	require.NoError(t, err)
	key := opts.Key

	f, err := newFunction(o.algo, opts)
	require.NoError(t, err)
	assert.True(t, key.IsEmpty())
	assert.Nil(t, key.Bytes())

	ref, err := hashers.New("siphash", hashers.Options{Key: config.NewSecret([]byte("0123456789abcdef"))})
	require.NoError(t, err)
	want, err := ref.ComputeHash([]byte("abc"))
	require.NoError(t, err)
	got, err := f.ComputeHash([]byte("abc"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}
