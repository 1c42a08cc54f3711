package wpdeploy

import (
	"strings"
	"testing"
)

func TestEnvironmentYAML(t *testing.T) {
	env := Environment{
		Name:          "staging",
		ServerName:    "staging.example.org",
		ServerAliases: []string{"stage.example.org"},
		DBHost:        "db.internal",
		DBName:        "wp_staging",
		DBUser:        "wp",
		DBPassword:    "s3cret",
	}

	out, err := EnvironmentYAML(env)
	if err != nil {
		t.Fatalf("EnvironmentYAML() error = %v", err)
	}
	got := string(out)
	if strings.Contains(got, "s3cret") {
		t.Errorf("password leaked:\n%s", got)
	}
	for _, want := range []string{"server_name: staging.example.org", "- stage.example.org", "db_password: '********'", "force_required: false"} {
		if !strings.Contains(got, want) {
			t.Errorf("EnvironmentYAML() missing %q:\n%s", want, got)
		}
	}
	if env.DBPassword != "s3cret" {
		t.Error("EnvironmentYAML() modified its argument")
	}
}
