/*
To store common variables
*/

package common

const RECORD_TAG = "list"
const CORPS_TABLE = "corps"

// Output formats
const FMT_JSON = "json"
const FMT_CSV = "csv"
const FMT_YAML = "yaml"
const FMT_XLSX = "xlsx"

const JSON_INDENT = "    "

var Debug bool

// Paths related
var InputFile = ""  // CORPCODE.xml (or .json for 'load')
var OutputFile = "" // output.json
var OutputFormat = FMT_JSON
var Quiet bool // Do not print the converted document to stdout

// Conversion related
var Strict bool // Fail on a field without text instead of using ""

// Database related
var DbConnStr = ""
var SlowMS int64 = 1000
