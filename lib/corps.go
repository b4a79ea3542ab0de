package lib

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"Xml2Json/bs_clients"
	"Xml2Json/common"
	h "Xml2Json/helpers"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// Corp : one row of the corps table
type Corp struct {
	CorpCode   string
	CorpName   string
	StockCode  string
	ModifyDate string
}

func CorpFromRecord(r *Record) (Corp, bool) {
	code, ok := r.Get("corp_code")
	if !ok || len(code) == 0 {
		return Corp{}, false
	}
	name, _ := r.Get("corp_name")
	stock, _ := r.Get("stock_code")
	modified, _ := r.Get("modify_date")
	return Corp{CorpCode: code, CorpName: norm.NFC.String(name), StockCode: stock, ModifyDate: modified}, true
}

func CreateCorpsTable(db *DB) error {
	ddl := "CREATE TABLE IF NOT EXISTS " + common.CORPS_TABLE + " (corp_code TEXT PRIMARY KEY, corp_name TEXT, stock_code TEXT, modify_date TEXT)"
	if db.Driver == DRIVER_MYSQL {
		// TEXT can't be a primary key in MySQL
		ddl = "CREATE TABLE IF NOT EXISTS " + common.CORPS_TABLE + " (corp_code VARCHAR(32) PRIMARY KEY, corp_name VARCHAR(255), stock_code VARCHAR(32), modify_date VARCHAR(16)) DEFAULT CHARSET=utf8mb4"
	}
	if _, err := Exec(ddl, db, common.SlowMS); err != nil {
		return err
	}
	if db.Driver != DRIVER_MYSQL {
		_, err := Exec("CREATE INDEX IF NOT EXISTS "+common.CORPS_TABLE+"_corp_name_idx ON "+common.CORPS_TABLE+" (corp_name)", db, common.SlowMS)
		return err
	}
	return nil
}

func upsertCorpSQL(driver string) string {
	cols := " (corp_code, corp_name, stock_code, modify_date) VALUES (?, ?, ?, ?)"
	switch driver {
	case DRIVER_POSTGRES:
		return "INSERT INTO " + common.CORPS_TABLE + cols + " ON CONFLICT (corp_code) DO UPDATE SET corp_name = EXCLUDED.corp_name, stock_code = EXCLUDED.stock_code, modify_date = EXCLUDED.modify_date"
	case DRIVER_MYSQL:
		return "REPLACE INTO " + common.CORPS_TABLE + cols
	}
	return "INSERT OR REPLACE INTO " + common.CORPS_TABLE + cols
}

// LoadCorps upserts the records in one transaction and returns the number of stored rows.
func LoadCorps(db *DB, records []*Record) (int, error) {
	startMs := time.Now().UnixMilli()
	if db == nil {
		return 0, errors.WithStack(ErrNoDb)
	}
	if err := CreateCorpsTable(db); err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin a transaction")
	}
	stmt, err := tx.Prepare(db.Rebind(upsertCorpSQL(db.Driver)))
	if err != nil {
		_ = tx.Rollback()
		return 0, errors.Wrap(err, "failed to prepare the upsert statement")
	}
	defer stmt.Close()

	stored := 0
	for i, r := range records {
		corp, ok := CorpFromRecord(r)
		if !ok {
			h.Log("WARN", fmt.Sprintf("Record %d has no corp_code. Skipping.", i))
			continue
		}
		if _, err := stmt.Exec(corp.CorpCode, corp.CorpName, corp.StockCode, corp.ModifyDate); err != nil {
			_ = tx.Rollback()
			return 0, errors.Wrapf(err, "failed to store corp_code %s", corp.CorpCode)
		}
		stored++
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit")
	}
	h.Elapsed(startMs, fmt.Sprintf("Stored %d of %d records into %s", stored, len(records), common.CORPS_TABLE), 0)
	return stored, nil
}

// FindCorpCode returns the corp_code of the exact corp_name. If many, the smallest corp_code.
func FindCorpCode(db *DB, corpName string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(corpName))
	h.Log("DEBUG", "Received corpName: "+name)
	query := "SELECT corp_code FROM " + common.CORPS_TABLE + " WHERE corp_name = ? ORDER BY corp_code LIMIT 1"
	rows, err := Query(query, db, common.SlowMS, name)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var code string
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", errors.WithStack(err)
		}
		return "", errors.Wrapf(ErrCorpNotFound, "corpName: %s", name)
	}
	if err := rows.Scan(&code); err != nil {
		return "", errors.WithStack(err)
	}
	return code, nil
}

// FindCorp returns every column of the corp_code.
func FindCorp(db *DB, corpCode string) (Corp, error) {
	var c Corp
	if db == nil {
		return c, errors.WithStack(ErrNoDb)
	}
	var stock sql.NullString
	var modified sql.NullString
	var name sql.NullString
	query := "SELECT corp_code, corp_name, stock_code, modify_date FROM " + common.CORPS_TABLE + " WHERE corp_code = ?"
	err := db.QueryRow(db.Rebind(query), corpCode).Scan(&c.CorpCode, &name, &stock, &modified)
	if err == sql.ErrNoRows {
		return c, errors.Wrapf(ErrCorpNotFound, "corp_code: %s", corpCode)
	}
	if err != nil {
		return c, errors.WithStack(err)
	}
	c.CorpName, c.StockCode, c.ModifyDate = name.String, stock.String, modified.String
	return c, nil
}

// ReadInputRecords reads an XML document, or a JSON array when the path ends with .json.
func ReadInputRecords(path string, strict bool) ([]*Record, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		return ReadRecordsFromFile(path, strict)
	}
	f, err := bs_clients.GetClient(path).OpenPath(path)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Path: path, Err: err})
	}
	defer f.Close()
	jsonBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Path: path, Err: err})
	}
	records, err := DecodeJSON(jsonBytes)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Path: path, Err: err})
	}
	return records, nil
}
