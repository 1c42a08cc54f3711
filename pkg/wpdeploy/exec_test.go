package wpdeploy

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const mysqlFilename = "/usr/local/mysql/bin/mysql"
const svnFilename = "/usr/bin/svn"

func Test_find(t *testing.T) {
	type args struct {
		fs       afero.Fs
		filename string
	}
	fs := afero.NewMemMapFs()
	createFile(fs, mysqlFilename)
	createFile(fs, svnFilename)

	tests := []struct {
		name    string
		args    args
		want    string
		wantErr bool
	}{
		{"mysql", args{fs: fs, filename: "mysql"}, mysqlFilename, false},
		{"svn", args{fs: fs, filename: "svn"}, svnFilename, false},
		{"missing", args{fs: fs, filename: "wpdeploy-no-such-binary"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := find(tt.args.fs, tt.args.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("find() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("find() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecRunner_ExitError(t *testing.T) {
	bin, err := find(afero.NewOsFs(), "false")
	if err != nil {
		t.Skip("false not available")
	}

	err = (&ExecRunner{}).Run(context.Background(), &Command{Name: bin})
	exitErr, ok := errors.Cause(err).(*ExitError)
	if !ok {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("ExitError.Code = %d, want 1", exitErr.Code)
	}
}

func TestExecRunner_Stdout(t *testing.T) {
	bin, err := find(afero.NewOsFs(), "echo")
	if err != nil {
		t.Skip("echo not available")
	}

	var out strings.Builder
	if err := (&ExecRunner{}).Run(context.Background(), &Command{Name: bin, Args: []string{"hello"}, Stdout: &out}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.String() != "hello\n" {
		t.Errorf("stdout = %q, want %q", out.String(), "hello\n")
	}
}
