package wpdeploy

import (
	"context"
	"io"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

const testConfig = `{
	"default_environment": "Development",
	"dump_dir": "data",
	"wordpress": {"version": "4.9.8"},
	"plugins": {"akismet": "4.0.8", "jetpack": "trunk"},
	"hooks": {"post_dump": "backup.sh --quiet", "pre_load": ""},
	"environments": {
		"development": {
			"server_name": "dev.local",
			"db_name": "wp_dev",
			"db_user": "root"
		},
		"staging": {
			"server_name": "staging.example.org",
			"server_aliases": ["stage.example.org"],
			"db_host": "db.internal:3307",
			"db_name": "wp_staging",
			"db_user": "wp",
			"db_password": "s3cret"
		},
		"production": {
			"server_name": "example.org",
			"server_aliases": ["www.example.org"],
			"db_name": "wp",
			"db_user": "wp",
			"force_required": true
		}
	}
}`

func createFile(fs afero.Fs, filename string) {
	fs.MkdirAll(filepath.Dir(filename), 0755)
	f, _ := fs.Create(filename)
	defer f.Close()
}

func createBinaries(fs afero.Fs) {
	for _, name := range []string{"mysql", "mysqldump", "svn"} {
		createFile(fs, filepath.Join("/usr/bin", name))
	}
}

func loadTestConfig(t *testing.T, fs afero.Fs) *Config {
	t.Helper()
	if err := afero.WriteFile(fs, ConfigName, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadConfig(fs, ConfigName)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	return config
}

// fakeRunner records commands instead of running them
type fakeRunner struct {
	commands []*Command
	stdin    map[string]string
	stdout   map[string]string
	fail     map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		stdin:  map[string]string{},
		stdout: map[string]string{},
		fail:   map[string]error{},
	}
}

func (f *fakeRunner) Run(ctx context.Context, c *Command) error {
	f.commands = append(f.commands, c)
	name := filepath.Base(c.Name)
	if c.Stdin != nil {
		b, err := ioutil.ReadAll(c.Stdin)
		if err != nil {
			return err
		}
		f.stdin[name] = string(b)
	}
	if out, ok := f.stdout[name]; ok && c.Stdout != nil {
		io.WriteString(c.Stdout, out)
	}
	return f.fail[name]
}

func (f *fakeRunner) names() []string {
	names := make([]string, len(f.commands))
	for i, c := range f.commands {
		names[i] = filepath.Base(c.Name)
	}
	return names
}
