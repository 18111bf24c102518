//go:build e2e

package e2e

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	sqliteImage = "nouchka/sqlite3:latest"
	dbFile      = "widget.db"
	mainPkg     = "./cmd"
)

// process is a running widget-weather binary.
type process struct {
	cmd    *exec.Cmd
	base   string
	client *http.Client
}

// provisionSQLite has a sqlite3 container create the database on a bind
// mount, the way the deployment volume is prepared, and returns the host path.
func provisionSQLite(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	ctx := context.Background()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:      sqliteImage,
			WorkingDir: "/data",
			Entrypoint: []string{"sh", "-c"},
			Cmd: []string{
				"sqlite3 /data/" + dbFile + " 'PRAGMA journal_mode=WAL;' && echo 'sqlite ready' && tail -f /dev/null",
			},
			HostConfigModifier: func(hc *container.HostConfig) {
				hc.Binds = append(hc.Binds, dir+":/data")
			},
			WaitingFor: wait.ForLog("sqlite ready").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("sqlite container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	path := filepath.Join(dir, dbFile)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file missing on host: %v", err)
	}
	return path
}

// build compiles the server from the module root (the parent of ./e2e).
func build(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root := filepath.Dir(wd)
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		t.Fatalf("no go.mod in %q: %v", root, err)
	}

	bin := filepath.Join(t.TempDir(), "widget-weather")
	cmd := exec.Command("go", "build", "-o", bin, mainPkg)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, out)
	}
	return bin
}

func freeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

// launch starts bin with env appended to the test's environment and waits
// for /healthz.
func launch(t *testing.T, bin string, env ...string) *process {
	t.Helper()

	addr := freeAddr(t)
	cmd := exec.Command(bin)
	cmd.Env = append(append(os.Environ(), "HTTP_ADDR="+addr), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	p := &process{cmd: cmd, base: "http://" + addr, client: &http.Client{Timeout: 5 * time.Second}}
	t.Cleanup(func() {
		if cmd.ProcessState == nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err := p.client.Get(p.base + "/healthz"); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return p
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server at %s never became healthy", p.base)
	return nil
}

// stop sends SIGTERM and expects a clean exit.
func (p *process) stop(t *testing.T) {
	t.Helper()

	_ = p.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server exit: %v", err)
		}
	case <-time.After(5 * time.Second):
		_ = p.cmd.Process.Kill()
		t.Fatal("server did not exit in time")
	}
}
