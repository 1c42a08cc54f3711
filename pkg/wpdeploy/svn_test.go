package wpdeploy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestCoreExternal(t *testing.T) {
	tests := []struct {
		name string
		wp   WordPress
		want External
	}{
		{"tagged", WordPress{Version: "4.9.8", Repository: defaultCoreRepository}, External{"wordpress", "https://core.svn.wordpress.org/tags/4.9.8"}},
		{"trunk", WordPress{Version: "trunk", Repository: defaultCoreRepository}, External{"wordpress", "https://core.svn.wordpress.org/trunk"}},
		{"unpinned", WordPress{Repository: "https://mirror.test/wp/"}, External{"wordpress", "https://mirror.test/wp/trunk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoreExternal(tt.wp); got != tt.want {
				t.Errorf("CoreExternal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPluginExternals(t *testing.T) {
	wp := WordPress{PluginRepository: defaultPluginRepository}
	got := PluginExternals(wp, map[string]string{"jetpack": "", "akismet": "4.0.8"})

	want := []External{
		{"akismet", "https://plugins.svn.wordpress.org/akismet/tags/4.0.8"},
		{"jetpack", "https://plugins.svn.wordpress.org/jetpack/trunk"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PluginExternals() mismatch (-want +got):\n%s", diff)
	}
	if got := formatExternals(want); got != "https://plugins.svn.wordpress.org/akismet/tags/4.0.8 akismet\nhttps://plugins.svn.wordpress.org/jetpack/trunk jetpack\n" {
		t.Errorf("formatExternals() = %q", got)
	}
}

func TestDeployer_Init(t *testing.T) {
	d, fs, runner := newTestDeployer(t, Options{})
	createFile(fs, filepath.Join("site", "wp-content", "themes", "index.php"))

	err := d.Init(context.Background(), "site", InitOptions{WordPressVersion: "5.0", Plugins: []string{"wordpress-seo@9.0"}})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	want := [][]string{
		{"info", "--non-interactive", "."},
		{"mkdir", "--parents", "wp-content/plugins", "wp-content/uploads", "data"},
		{"propset", "svn:ignore", "wp-config.php", "."},
		{"propset", "svn:ignore", "*", "wp-content/uploads"},
		{"propset", "svn:ignore", "*.sql\n*.tmp", "data"},
		{"propset", "svn:externals", "https://core.svn.wordpress.org/tags/5.0 wordpress\n", "."},
		{"propset", "svn:externals", "https://plugins.svn.wordpress.org/akismet/tags/4.0.8 akismet\n" +
			"https://plugins.svn.wordpress.org/jetpack/trunk jetpack\n" +
			"https://plugins.svn.wordpress.org/wordpress-seo/tags/9.0 wordpress-seo\n", "wp-content/plugins"},
		{"update", "--non-interactive"},
	}
	var got [][]string
	for _, c := range runner.commands {
		if c.Dir != "site" {
			t.Errorf("%s ran in %q, want site", c, c.Dir)
		}
		got = append(got, c.Args)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("svn commands mismatch (-want +got):\n%s", diff)
	}
}

func TestDeployer_InitRequiresWorkingCopy(t *testing.T) {
	d, _, runner := newTestDeployer(t, Options{})
	runner.fail["svn"] = &ExitError{Command: "svn", Code: 1, Stderr: "E155007: not a working copy"}

	if err := d.Init(context.Background(), "site", InitOptions{}); err == nil {
		t.Fatal("Init() expected an error outside a working copy")
	}
	if len(runner.commands) != 1 {
		t.Errorf("commands ran after svn info failed: %d", len(runner.commands))
	}
}

func TestDeployer_UpdateExternals(t *testing.T) {
	fs := afero.NewMemMapFs()
	createBinaries(fs)
	runner := newFakeRunner()
	config := loadTestConfig(t, fs)
	config.Plugins = nil
	d := NewDeployer(config, fs, runner, Options{})

	if err := d.UpdateExternals(context.Background(), ".", nil); err != nil {
		t.Fatalf("UpdateExternals() error = %v", err)
	}
	want := [][]string{
		{"propset", "svn:externals", "https://core.svn.wordpress.org/tags/4.9.8 wordpress\n", "."},
		{"update", "--non-interactive"},
	}
	var got [][]string
	for _, c := range runner.commands {
		got = append(got, c.Args)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("svn commands mismatch (-want +got):\n%s", diff)
	}
}
