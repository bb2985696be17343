package repositories

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/flybasist/eclipse/internal/modules/anticall"
)

// Русский комментарий: Драйвер-заглушка, отдающий пустой результат на
// любой запрос. Имитирует свежую базу, в которой таблица bot_settings
// ещё не содержит ни одной строки.

type emptyDriver struct{}

func (emptyDriver) Open(name string) (driver.Conn, error) { return emptyConn{}, nil }

type emptyConn struct{}

func (emptyConn) Prepare(query string) (driver.Stmt, error) { return emptyStmt{}, nil }
func (emptyConn) Close() error                              { return nil }
func (emptyConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type emptyStmt struct{}

func (emptyStmt) Close() error  { return nil }
func (emptyStmt) NumInput() int { return -1 }
func (emptyStmt) Exec(args []driver.Value) (driver.Result, error) {
	return driver.RowsAffected(0), nil
}
func (emptyStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &emptyRows{}, nil
}

type emptyRows struct{}

func (*emptyRows) Columns() []string              { return []string{"value"} }
func (*emptyRows) Close() error                   { return nil }
func (*emptyRows) Next(dest []driver.Value) error { return io.EOF }

func init() {
	sql.Register("settings-empty", emptyDriver{})
}

func freshRepo(t *testing.T) *SettingsRepository {
	t.Helper()
	db, err := sql.Open("settings-empty", "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsRepository(db)
}

// Свежая установка без единой строки настроек: фильтр флуда обязан
// быть выключен, пока владелец не включит его явно.
func TestAntibugDisabledByDefault(t *testing.T) {
	repo := freshRepo(t)

	enabled, err := repo.AntibugEnabled()
	if err != nil {
		t.Fatalf("AntibugEnabled() error: %v", err)
	}
	if enabled {
		t.Error("AntibugEnabled() = true with no persisted row, want false")
	}
}

func TestDefaultsWithEmptyTable(t *testing.T) {
	repo := freshRepo(t)

	mode, err := repo.BotMode()
	if err != nil {
		t.Fatalf("BotMode() error: %v", err)
	}
	if mode != "public" {
		t.Errorf("BotMode() = %q, want public", mode)
	}

	antiSpam, err := repo.AntiSpamEnabled()
	if err != nil {
		t.Fatalf("AntiSpamEnabled() error: %v", err)
	}
	if !antiSpam {
		t.Error("AntiSpamEnabled() = false, command cooldown should default on")
	}

	st, err := repo.AnticallState()
	if err != nil {
		t.Fatalf("AnticallState() error: %v", err)
	}
	if !st.Voice || !st.Video || st.Mode != anticall.ModeReply {
		t.Errorf("AnticallState() = %+v, want voice+video on in reply mode", st)
	}
}
