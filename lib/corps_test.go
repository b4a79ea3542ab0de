package lib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func openTestDb(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDb(filepath.Join(t.TempDir(), "corpcode.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func loadTestCorps(t *testing.T, db *DB) {
	t.Helper()
	records, err := ReadInputRecords(CORPCODE_XML, false)
	require.NoError(t, err)
	n, err := LoadCorps(db, records)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestCorpFromRecord(t *testing.T) {
	r := NewRecord()
	r.Set("corp_code", "00126380")
	r.Set("corp_name", "삼성전자")
	corp, ok := CorpFromRecord(r)
	assert.True(t, ok)
	assert.Equal(t, Corp{CorpCode: "00126380", CorpName: "삼성전자"}, corp)

	_, ok = CorpFromRecord(NewRecord())
	assert.False(t, ok)
}

func TestUpsertCorpSQL(t *testing.T) {
	assert.Contains(t, upsertCorpSQL(DRIVER_SQLITE), "INSERT OR REPLACE INTO corps")
	assert.Contains(t, upsertCorpSQL(DRIVER_POSTGRES), "ON CONFLICT (corp_code) DO UPDATE")
	assert.Contains(t, upsertCorpSQL(DRIVER_MYSQL), "REPLACE INTO corps")
}

func TestLoadCorps_FindCorpCode(t *testing.T) {
	db := openTestDb(t)
	loadTestCorps(t, db)

	code, err := FindCorpCode(db, "에스케이하이닉스")
	require.NoError(t, err)
	assert.Equal(t, "00164779", code)

	code, err = FindCorpCode(db, "  삼성전자 ")
	require.NoError(t, err)
	assert.Equal(t, "00126380", code)
}

func TestFindCorpCode_Decomposed_IsNormalized(t *testing.T) {
	db := openTestDb(t)
	loadTestCorps(t, db)
	nfd := norm.NFD.String("삼성전자")
	require.NotEqual(t, "삼성전자", nfd)
	code, err := FindCorpCode(db, nfd)
	require.NoError(t, err)
	assert.Equal(t, "00126380", code)
}

func TestFindCorpCode_NotFound_ReturnsErrCorpNotFound(t *testing.T) {
	db := openTestDb(t)
	loadTestCorps(t, db)
	_, err := FindCorpCode(db, "없는회사")
	assert.ErrorIs(t, err, ErrCorpNotFound)
}

func TestFindCorp_NilDb_ReturnsErrNoDb(t *testing.T) {
	_, err := FindCorpCode(nil, "삼성전자")
	assert.ErrorIs(t, err, ErrNoDb)
	assert.NotErrorIs(t, err, ErrCorpNotFound)

	_, err = FindCorp(nil, "00126380")
	assert.ErrorIs(t, err, ErrNoDb)

	_, err = LoadCorps(nil, nil)
	assert.ErrorIs(t, err, ErrNoDb)
}

func TestLoadCorps_TwiceUpserts(t *testing.T) {
	db := openTestDb(t)
	loadTestCorps(t, db)

	r := NewRecord()
	r.Set("corp_code", "00126380")
	r.Set("corp_name", "삼성전자(주)")
	r.Set("stock_code", "005930")
	r.Set("modify_date", "20240101")
	n, err := LoadCorps(db, []*Record{r})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := CountRows(db, "corps")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	corp, err := FindCorp(db, "00126380")
	require.NoError(t, err)
	assert.Equal(t, Corp{CorpCode: "00126380", CorpName: "삼성전자(주)", StockCode: "005930", ModifyDate: "20240101"}, corp)

	_, err = FindCorp(db, "99999999")
	assert.ErrorIs(t, err, ErrCorpNotFound)
}

func TestLoadCorps_FromJson_SkipsRecordsWithoutCode(t *testing.T) {
	db := openTestDb(t)
	records, err := ReadInputRecords("testdata/corpcode.json", false)
	require.NoError(t, err)
	require.Len(t, records, 2)
	n, err := LoadCorps(db, records)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	corp, err := FindCorp(db, "00126380")
	require.NoError(t, err)
	assert.Equal(t, "20230110", corp.ModifyDate)
}

func TestReadInputRecords_MissingJson_ReturnsParseError(t *testing.T) {
	_, err := ReadInputRecords(filepath.Join(t.TempDir(), "missing.json"), false)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}
