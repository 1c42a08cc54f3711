package wpdeploy

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// saltNames are the authentication keys and salts wp-config.php defines
var saltNames = []string{
	"AUTH_KEY",
	"SECURE_AUTH_KEY",
	"LOGGED_IN_KEY",
	"NONCE_KEY",
	"AUTH_SALT",
	"SECURE_AUTH_SALT",
	"LOGGED_IN_SALT",
	"NONCE_SALT",
}

// Salt is one generated authentication key or salt
type Salt struct {
	Name  string
	Value string
}

// WPConfig is the data wp-config.php is rendered from
type WPConfig struct {
	Environments []Environment
	Default      string
	TablePrefix  string
	Salts        []Salt
}

var phpEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// php quotes s as a PHP single-quoted string literal
func php(s string) string {
	return "'" + phpEscaper.Replace(s) + "'"
}

var wpConfigTemplate = template.Must(template.New("wp-config.php").Funcs(template.FuncMap{"php": php}).Parse(`<?php
/*
 * Generated by wpdeploy from the project configuration.
 * Edit the configuration and regenerate instead of editing this file.
 */

$wpdeploy_environments = array(
{{- range .Environments}}
	{{php .Name}} => array(
		'hosts'       => array({{range $i, $host := .Hosts}}{{if $i}}, {{end}}{{php $host}}{{end}}),
		'db_host'     => {{php .DBHost}},
		'db_name'     => {{php .DBName}},
		'db_user'     => {{php .DBUser}},
		'db_password' => {{php .DBPassword}},
	),
{{- end}}
);

$wpdeploy_environment = {{php .Default}};
if (isset($_SERVER['HTTP_HOST'])) {
	foreach ($wpdeploy_environments as $name => $environment) {
		if (in_array($_SERVER['HTTP_HOST'], $environment['hosts'], true)) {
			$wpdeploy_environment = $name;
			break;
		}
	}
}
$wpdeploy_config = $wpdeploy_environments[$wpdeploy_environment];

define('WP_ENV', $wpdeploy_environment);
define('DB_NAME', $wpdeploy_config['db_name']);
define('DB_USER', $wpdeploy_config['db_user']);
define('DB_PASSWORD', $wpdeploy_config['db_password']);
define('DB_HOST', $wpdeploy_config['db_host']);
define('DB_CHARSET', 'utf8mb4');
define('DB_COLLATE', '');

define('WP_HOME', 'http://' . $wpdeploy_config['hosts'][0]);
define('WP_SITEURL', WP_HOME . '/wordpress');
define('WP_CONTENT_DIR', dirname(__FILE__) . '/wp-content');
define('WP_CONTENT_URL', WP_HOME . '/wp-content');
{{range .Salts}}
define({{php .Name}}, {{php .Value}});
{{- end}}

$table_prefix = {{php .TablePrefix}};

if (!defined('ABSPATH')) {
	define('ABSPATH', dirname(__FILE__) . '/wordpress/');
}
require_once(ABSPATH . 'wp-settings.php');
`))

// RenderWPConfig writes a wp-config.php that picks database settings by the
// requested host name, falling back to the default environment.
func RenderWPConfig(w io.Writer, data WPConfig) error {
	return errors.Wrap(wpConfigTemplate.Execute(w, data), "rendering wp-config.php")
}

// NewSalts generates fresh authentication keys and salts
func NewSalts() ([]Salt, error) {
	salts := make([]Salt, len(saltNames))
	for i, name := range saltNames {
		b := make([]byte, 48)
		if _, err := rand.Read(b); err != nil {
			return nil, errors.Wrap(err, "generating salts")
		}
		salts[i] = Salt{Name: name, Value: base64.StdEncoding.EncodeToString(b)}
	}
	return salts, nil
}

// GenerateWPConfig renders wp-config.php for every configured environment
// into path.
func (d *Deployer) GenerateWPConfig(path string) error {
	salts, err := NewSalts()
	if err != nil {
		return err
	}

	environments := make([]Environment, 0, len(d.config.Environments))
	for _, name := range d.config.Names() {
		environments = append(environments, d.config.Environments[name])
	}
	def := d.config.DefaultEnvironment
	if def == "" {
		def = environments[0].Name
	}

	f, err := d.fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	err = RenderWPConfig(f, WPConfig{
		Environments: environments,
		Default:      def,
		TablePrefix:  d.config.TablePrefix,
		Salts:        salts,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	log.Infof("wrote %s for %d environments", path, len(environments))
	return nil
}
