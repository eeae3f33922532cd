package testutil

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

const (
	// SecretKey is a fixed base64 encoded 32 byte secret
	SecretKey = "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20="
)

// SecretBytes returns the decoded SecretKey
func SecretBytes(t TestLog) []byte {
	buf, err := base64.StdEncoding.DecodeString(SecretKey)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

// BcryptLine returns an htpasswd line for user using the cheapest bcrypt cost
func BcryptLine(t TestLog, user, password string) string {
	buf, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("%v:%s", user, buf)
}

// Htpasswd renders users (user -> password) as htpasswd contents, sorted by user
func Htpasswd(t TestLog, users map[string]string) string {
	names := make([]string, 0, len(users))
	for k := range users {
		names = append(names, k)
	}
	sort.Strings(names)
	var lines []string
	for _, n := range names {
		lines = append(lines, BcryptLine(t, n, users[n]))
	}
	return strings.Join(lines, "\n") + "\n"
}

// AcquireHtpasswdFile writes users to a temporary htpasswd file
func AcquireHtpasswdFile(t TestLog, users map[string]string) (string, func()) {
	dir, err := ioutil.TempDir("", "rememberme-tests")
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, ".htpasswd")
	err = ioutil.WriteFile(file, []byte(Htpasswd(t, users)), 0600)
	if err != nil {
		t.Fatal(err)
	}
	return file, cleanupDir(t, dir)
}

// AcquireCredentialsDB creates a sqlite database with a populated
// credentials table. rows maps user ids to already hashed passwords.
func AcquireCredentialsDB(ctx context.Context, t TestLog, rows map[string]string) (string, func()) {
	dir, err := ioutil.TempDir("", "rememberme-tests")
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "credentials.db")
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_journal=wal&mode=rwc", file))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_, err = conn.ExecContext(ctx, `create table if not exists credentials(
		user_id text not null primary key,
		password_hash text not null)`)
	if err != nil {
		t.Fatal(err)
	}
	for user, hash := range rows {
		_, err = conn.ExecContext(ctx, `insert into credentials(user_id, password_hash) values (?, ?)`, user, hash)
		if err != nil {
			t.Fatal(err)
		}
	}
	return file, cleanupDir(t, dir)
}

func cleanupDir(t TestLog, dir string) func() {
	return func() {
		err := os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
