package credential

import (
	"context"
	"database/sql"
	"fmt"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	htpasswd "github.com/tg123/go-htpasswd"
)

// LoadSQLite reads every row of the credentials(user_id, password_hash)
// table into a snapshot. The database is opened read-only and closed
// before returning; later changes require a restart.
func LoadSQLite(ctx context.Context, path string) (*Snapshot, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_writable_schema=false&mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open credentials database %v, cause %w", path, err)
	}
	defer conn.Close()
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping credentials database %v, cause %w", path, err)
	}
	rows, err := conn.QueryContext(ctx, `select user_id, password_hash from credentials order by user_id asc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list credentials from %v, cause %w", path, err)
	}
	defer rows.Close()

	users := make(map[string]htpasswd.EncodedPasswd)
	var source []byte
	for rows.Next() {
		var user, stored string
		err = rows.Scan(&user, &stored)
		if err != nil {
			return nil, fmt.Errorf("unable to scan credential row, cause %w", err)
		}
		v, err := parseHash(user, stored)
		if err != nil {
			return nil, err
		}
		users[user] = v
		source = append(source, user...)
		source = append(source, ':')
		source = append(source, stored...)
		source = append(source, '\n')
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read credentials from %v, cause %w", path, err)
	}
	return newSnapshot(users, source), nil
}
