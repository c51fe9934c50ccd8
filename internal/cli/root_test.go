package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/information-sharing-networks/https-app/internal/bootstrap"
	"github.com/information-sharing-networks/https-app/internal/devcert"
	"github.com/information-sharing-networks/https-app/internal/routes"
	"github.com/information-sharing-networks/https-app/internal/testutil"
)

// isolate runs the test in an empty directory with a known environment
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("NODE_ENV", "test")
	t.Setenv("PORT", "3000")
	t.Setenv("HTTPS_KEY", "")
	t.Setenv("HTTPS_CERT", "")
	t.Setenv("LOG_LEVEL", "info")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(routes.SetRoutes)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := isolate(t)
	creds := testutil.WriteSelfSignedPair(t, dir, "k.pem", "c.pem")
	t.Setenv("HTTPS_KEY", creds.KeyPath)
	t.Setenv("HTTPS_CERT", creds.CertPath)

	out, err := execute(t, "check")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "TLS credentials are valid") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCheckCommandExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		environ  map[string]string
		wantCode int
	}{
		{"missing credentials", map[string]string{"HTTPS_KEY": "missing.pem"}, bootstrap.ExitCredentials},
		{"invalid port", map[string]string{"PORT": "70000"}, bootstrap.ExitConfig},
		{"non numeric port", map[string]string{"PORT": "https"}, bootstrap.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.environ {
				t.Setenv(k, v)
			}

			_, err := execute(t, "check")
			if got := ExitCode(err); got != tt.wantCode {
				t.Errorf("exit code: got %d, want %d (err %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestGenCertThenCheckWithDefaults(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "gen-cert")
	if err != nil {
		t.Fatalf("gen-cert failed: %v\n%s", err, out)
	}
	for _, name := range []string{"certs/localhost.key", "certs/localhost.crt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	if _, err := execute(t, "check"); err != nil {
		t.Errorf("check failed with generated credentials: %v", err)
	}

	_, err = execute(t, "gen-cert")
	if !errors.Is(err, devcert.ErrExists) {
		t.Errorf("expected existing files to be kept, got %v", err)
	}
	if _, err := execute(t, "gen-cert", "--force"); err != nil {
		t.Errorf("gen-cert --force failed: %v", err)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, "https-server version") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("nil: got %d", got)
	}
	if got := ExitCode(errors.New("unknown flag")); got != 1 {
		t.Errorf("generic error: got %d", got)
	}
	wrapped := &bootstrap.StartupError{Phase: bootstrap.Listening, Err: errors.New("address in use")}
	if got := ExitCode(wrapped); got != bootstrap.ExitListen {
		t.Errorf("listen failure: got %d", got)
	}
}
