package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"Xml2Json/common"
	h "Xml2Json/helpers"
	"Xml2Json/lib"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

const EXIT_USAGE = 2

// ErrUsage : wrapped by the errors which should print the usage and exit with EXIT_USAGE
var ErrUsage = errors.New("invalid usage")

func usage() {
	fmt.Fprintln(os.Stderr, `
Convert the 'list' records of an XML document (eg. OpenDART CORPCODE.xml) into a JSON array,
print it and save it into a file. Optionally load the records into the 'corps' table and look up corp codes.

USAGE:
    xml2json [options] [convert]       # CORPCODE.xml -> output.json
    xml2json [options] load            # -i (XML or .json) -> 'corps' table in --db
    xml2json [options] lookup CORP_NAME
    xml2json [options] show CORP_CODE
    xml2json -i s3://bucket/CORPCODE.xml -o az://container/output.json

ENVIRONMENT (for s3:// and az://):
    AWS_REGION, AWS_PROFILE or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY
    AZURE_STORAGE_CONNECTION_STRING or AZURE_STORAGE_ACCOUNT_NAME (+ AZURE_STORAGE_ACCOUNT_KEY)

OPTIONS:`)
	flag.PrintDefaults()
}

// Populate all global variables
func setGlobals(args []string) ([]string, error) {
	fs := flag.NewFlagSet("xml2json", flag.ContinueOnError)
	fs.Usage = usage
	fs.StringVarP(&common.InputFile, "input", "i", h.GetEnv("INPUT_FILE", "CORPCODE.xml"), "Input XML file (or a converted .json for 'load'). s3://bucket/key and az://container/blob are also accepted")
	fs.StringVarP(&common.OutputFile, "output", "o", h.GetEnv("OUTPUT_FILE", "output.json"), "Output file or s3:// az:// URI (overwritten)")
	fs.StringVarP(&common.OutputFormat, "format", "f", h.GetEnv("OUTPUT_FORMAT", common.FMT_JSON), "Output format: "+strings.Join(lib.Formats, ", "))
	fs.BoolVarP(&common.Quiet, "quiet", "q", false, "If true, do not print the result to stdout")
	fs.BoolVar(&common.Strict, "strict", h.GetBoolEnv("STRICT", false), "If true, a field element without text is an error instead of \"\"")
	fs.StringVar(&common.DbConnStr, "db", h.GetEnv("DB_CONN_STR", "corpcode.db"), "DB connection string (sqlite file path, postgres://..., mysql://...)")
	fs.Int64Var(&common.SlowMS, "slowMs", h.GetEnvInt64("SLOW_MS", 1000), "Log queries and reads slower than this (ms)")
	fs.BoolVarP(&common.Debug, "debug", "X", h.GetBoolEnv("DEBUG", false), "If true, verbose logging")
	flag.CommandLine = fs
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	h.DEBUG = common.Debug
	h.Log("DEBUG", "Starting setGlobals for "+strings.Join(args, " "))

	common.OutputFormat = strings.ToLower(common.OutputFormat)
	if !lib.IsValidFormat(common.OutputFormat) {
		return nil, errors.Errorf("unknown output format '%s' (available: %s)", common.OutputFormat, strings.Join(lib.Formats, ", "))
	}
	return fs.Args(), nil
}

func convert(stdout io.Writer) error {
	if common.Quiet {
		stdout = nil
	}
	n, err := lib.Convert(common.InputFile, common.OutputFile, common.OutputFormat, common.Strict, stdout)
	if err != nil {
		return err
	}
	h.Log("INFO", fmt.Sprintf("Converted %d records from %s into %s (%s)", n, common.InputFile, common.OutputFile, common.OutputFormat))
	return nil
}

func load(db *lib.DB) error {
	records, err := lib.ReadInputRecords(common.InputFile, common.Strict)
	if err != nil {
		return err
	}
	n, err := lib.LoadCorps(db, records)
	if err != nil {
		return err
	}
	h.Log("INFO", fmt.Sprintf("Loaded %d corps from %s", n, common.InputFile))
	return nil
}

func lookup(db *lib.DB, corpName string, stdout io.Writer) error {
	code, err := lib.FindCorpCode(db, corpName)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, code)
	return errors.WithStack(err)
}

func show(db *lib.DB, corpCode string, stdout io.Writer) error {
	corp, err := lib.FindCorp(db, corpCode)
	if err != nil {
		return err
	}
	rec := lib.NewRecord()
	rec.Set("corp_code", corp.CorpCode)
	rec.Set("corp_name", corp.CorpName)
	rec.Set("stock_code", corp.StockCode)
	rec.Set("modify_date", corp.ModifyDate)
	out, err := lib.EncodeJSON([]*lib.Record{rec})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return errors.WithStack(err)
}

// openDb also loads the input into a new sqlite file, like the corp code server did on start up.
func openDb(autoLoad bool) (*lib.DB, error) {
	needsLoad := false
	if path := lib.SqliteFilePath(common.DbConnStr); autoLoad && len(path) > 0 {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			h.Log("INFO", path+" does not exist. Loading "+common.InputFile)
			needsLoad = true
		}
	}
	db, err := lib.OpenDb(common.DbConnStr)
	if err != nil {
		return nil, err
	}
	if needsLoad {
		if err := load(db); err != nil {
			db.Close()
			if path := lib.SqliteFilePath(common.DbConnStr); len(path) > 0 {
				// do not leave an empty DB which would skip the loading next time
				_ = os.Remove(path)
			}
			return nil, err
		}
	}
	return db, nil
}

func run(args []string, stdout io.Writer) error {
	cmd := "convert"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}
	switch cmd {
	case "convert":
		return convert(stdout)
	case "load":
		db, err := openDb(false)
		if err != nil {
			return err
		}
		defer db.Close()
		return load(db)
	case "lookup", "show":
		if len(args) == 0 {
			return errors.Wrapf(ErrUsage, "'%s' requires an argument", cmd)
		}
		db, err := openDb(true)
		if err != nil {
			return err
		}
		defer db.Close()
		if cmd == "show" {
			return show(db, args[0], stdout)
		}
		return lookup(db, strings.Join(args, " "), stdout)
	}
	return errors.Wrapf(ErrUsage, "unknown command '%s'", cmd)
}

func main() {
	args, err := setGlobals(os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		h.Log("ERROR", err.Error())
		usage()
		os.Exit(EXIT_USAGE)
	}

	if err := run(args, os.Stdout); err != nil {
		if errors.Is(err, ErrUsage) {
			h.Log("ERROR", err.Error())
			usage()
			os.Exit(EXIT_USAGE)
		}
		if errors.Is(err, lib.ErrCorpNotFound) {
			h.Log("WARN", err.Error())
			os.Exit(1)
		}
		h.Log("ERROR", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}
