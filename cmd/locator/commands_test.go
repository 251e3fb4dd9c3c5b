package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/go-utils/log"

	"github.com/cepho/locator"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "locator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

const goodManifest = `
services:
  - name: config
  - name: database
    dependsOn: [config]
  - name: userService
    dependsOn: [database]
`

func TestValidateCmd(t *testing.T) {
	out, err := run(t, "validate", "--manifest", writeManifest(t, goodManifest))
	require.NoError(t, err)
	assert.Equal(t, "OK: 3 services\n", out)
}

func TestValidateCmd_Cycle(t *testing.T) {
	path := writeManifest(t, "services:\n  - name: a\n    dependsOn: [b]\n  - name: b\n    dependsOn: [a]\n")

	_, err := run(t, "validate", "-m", path)
	require.Error(t, err)
	assert.True(t, locator.IsCircularDependency(err))
}

func TestValidateCmd_Missing(t *testing.T) {
	path := writeManifest(t, "services:\n  - name: a\n    dependsOn: [ghost]\n")

	_, err := run(t, "validate", "-m", path)
	assert.ErrorContains(t, err, "service 'a' depends on 'ghost' which is not registered")
}

func TestOrderCmd(t *testing.T) {
	path := writeManifest(t, `
services:
  - name: userService
    dependsOn: [database]
  - name: database
    dependsOn: [config]
  - name: config
`)

	out, err := run(t, "order", "--manifest", path)
	require.NoError(t, err)
	assert.Equal(t, "config\ndatabase\nuserService\n", out)
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	_, err := run(t, "order", "--log-level", "loud", "--manifest", writeManifest(t, goodManifest))
	assert.ErrorContains(t, err, "invalid --log-level")
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c := locator.New()
	require.NoError(t, c.RegisterInstance("config", 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- serve(ctx, addr, c, log.NewNoopLogger())
	}()

	var resp *http.Response

	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + addr + "/services/config")
		if err != nil {
			return false
		}

		resp = r

		return true
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	cancel()
	require.NoError(t, <-done)
}
