package wpdeploy

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const pingTimeout = 5 * time.Second

// connectionArgs returns the client flags shared by mysqldump and mysql.
// The password never appears on the command line, see passwordEnv.
func connectionArgs(env Environment) []string {
	host, port := Cut(env.DBHost, ":")
	args := []string{"--host=" + host}
	if port != "" {
		args = append(args, "--port="+port)
	}
	if env.DBUser != "" {
		args = append(args, "--user="+env.DBUser)
	}
	return args
}

func passwordEnv(env Environment) []string {
	if env.DBPassword == "" {
		return nil
	}
	return []string{"MYSQL_PWD=" + env.DBPassword}
}

func dumpCommand(bin string, env Environment, out io.Writer) *Command {
	args := append(connectionArgs(env),
		"--single-transaction",
		"--add-drop-table",
		"--default-character-set=utf8mb4",
		env.DBName,
	)
	return &Command{Name: bin, Args: args, Env: passwordEnv(env), Stdout: out}
}

func loadCommand(bin string, env Environment, in io.Reader) *Command {
	args := append(connectionArgs(env),
		"--default-character-set=utf8mb4",
		env.DBName,
	)
	return &Command{Name: bin, Args: args, Env: passwordEnv(env), Stdin: in}
}

// dsn builds a driver connection string for the environment's database
func dsn(env Environment) string {
	cfg := mysql.NewConfig()
	cfg.User = env.DBUser
	cfg.Passwd = env.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = env.DBHost
	cfg.DBName = env.DBName
	cfg.Timeout = pingTimeout
	return cfg.FormatDSN()
}

// Ping checks that the environment's database accepts connections with the
// configured credentials.
func Ping(ctx context.Context, env Environment) error {
	db, err := sql.Open("mysql", dsn(env))
	if err != nil {
		return errors.Wrapf(err, "opening database for %s", env.Name)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "connecting to %s database %s on %s", env.Name, env.DBName, env.DBHost)
	}
	return nil
}
