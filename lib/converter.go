// Package lib: XML to record conversion, rendering and the corps database.
package lib

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"Xml2Json/bs_clients"
	"Xml2Json/common"
	h "Xml2Json/helpers"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// RecordReader pulls one record per direct 'list' child of the document root.
type RecordReader struct {
	Name   string // used in errors
	Strict bool   // MissingTextError instead of "" for a field without text
	dec    *xml.Decoder
	depth  int
	root   bool // root element started
	closed bool // root element ended
	index  int
}

var utf8Bom = []byte("\xef\xbb\xbf")

// e.g. <!DOCTYPE result [<!ENTITY corp "Samsung">]>
var entityDeclRe = regexp.MustCompile(`<!ENTITY\s+([^\s%"']+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

func NewRecordReader(r io.Reader, name string, strict bool) *RecordReader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8Bom)); err == nil && bytes.Equal(b, utf8Bom) {
		_, _ = br.Discard(len(utf8Bom))
	}
	dec := xml.NewDecoder(br)
	// e.g. <?xml version="1.0" encoding="EUC-KR"?>
	dec.CharsetReader = charset.NewReaderLabel
	return &RecordReader{Name: name, Strict: strict, dec: dec}
}

func (rr *RecordReader) parseErr(err error) error {
	return errors.WithStack(&ParseError{Path: rr.Name, Err: err})
}

// Next returns io.EOF after the last record once the whole document has been validated.
func (rr *RecordReader) Next() (*Record, error) {
	for {
		tok, err := rr.dec.Token()
		if err == io.EOF {
			if !rr.root {
				return nil, rr.parseErr(errors.New("no root element"))
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, rr.parseErr(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rr.depth == 0 {
				if rr.closed {
					return nil, rr.parseErr(errors.Errorf("junk after document element: <%s>", tagName(t.Name)))
				}
				rr.root = true
				rr.depth = 1
				continue
			}
			// depth is always 1 here as everything else is skipped
			if t.Name.Space == "" && t.Name.Local == common.RECORD_TAG {
				return rr.readRecord()
			}
			h.Log("DEBUG", fmt.Sprintf("Ignoring <%s> under the root element", tagName(t.Name)))
			if err := rr.dec.Skip(); err != nil {
				return nil, rr.parseErr(err)
			}
		case xml.EndElement:
			rr.depth--
			if rr.depth == 0 {
				rr.closed = true
			}
		case xml.CharData:
			if rr.depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, rr.parseErr(errors.New("text outside of the root element"))
			}
		case xml.Directive:
			if rr.depth == 0 && !rr.root {
				rr.declareEntities(t)
			}
		}
	}
}

// declareEntities makes the general entities of the internal DTD subset usable in the document.
func (rr *RecordReader) declareEntities(d xml.Directive) {
	if !bytes.HasPrefix(d, []byte("DOCTYPE")) {
		return
	}
	for _, m := range entityDeclRe.FindAllSubmatch(d, -1) {
		if rr.dec.Entity == nil {
			rr.dec.Entity = make(map[string]string)
		}
		name := string(m[1])
		if _, ok := rr.dec.Entity[name]; ok {
			// the first declaration is binding
			continue
		}
		rr.dec.Entity[name] = string(m[2]) + string(m[3])
		h.Log("DEBUG", fmt.Sprintf("Declared entity &%s;", name))
	}
}

func (rr *RecordReader) readRecord() (*Record, error) {
	rec := NewRecord()
	for {
		tok, err := rr.dec.Token()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, rr.parseErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			key := tagName(t.Name)
			line, _ := rr.dec.InputPos()
			text, hasText, err := rr.readLeadingText()
			if err != nil {
				return nil, err
			}
			if !hasText && rr.Strict {
				return nil, errors.WithStack(&MissingTextError{Record: rr.index, Field: key, Line: line})
			}
			rec.Set(key, strings.TrimSpace(text))
		case xml.EndElement:
			rr.index++
			return rec, nil
		}
	}
}

// readLeadingText returns the character data before the first child element. Descendants are skipped.
func (rr *RecordReader) readLeadingText() (string, bool, error) {
	var sb strings.Builder
	hasText := false
	collecting := true
	for {
		tok, err := rr.dec.Token()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", false, rr.parseErr(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if collecting && len(t) > 0 {
				sb.Write(t)
				hasText = true
			}
		case xml.StartElement:
			collecting = false
			if err := rr.dec.Skip(); err != nil {
				return "", false, rr.parseErr(err)
			}
		case xml.EndElement:
			return sb.String(), hasText, nil
		}
	}
}

func tagName(n xml.Name) string {
	if len(n.Space) == 0 {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// ReadRecords reads the whole document, so a malformed tail fails even after the last record.
func ReadRecords(r io.Reader, name string, strict bool) ([]*Record, error) {
	rr := NewRecordReader(r, name, strict)
	records := make([]*Record, 0)
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

func ReadRecordsFromFile(path string, strict bool) ([]*Record, error) {
	defer h.Elapsed(time.Now().UnixMilli(), "Read "+path, common.SlowMS)
	f, err := bs_clients.GetClient(path).OpenPath(path)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Path: path, Err: err})
	}
	defer f.Close()
	records, err := ReadRecords(f, path, strict)
	if err != nil {
		return nil, err
	}
	h.Log("DEBUG", fmt.Sprintf("Read %d records from %s", len(records), path))
	return records, nil
}

// Convert reads inputPath, renders the records in the format, prints to stdout (if not nil) and writes outputPath.
// Everything is rendered before anything is written.
func Convert(inputPath string, outputPath string, format string, strict bool, stdout io.Writer) (int, error) {
	records, err := ReadRecordsFromFile(inputPath, strict)
	if err != nil {
		return 0, err
	}
	data, err := Render(records, format)
	if err != nil {
		return 0, err
	}
	if stdout != nil && IsTextFormat(format) {
		if _, err := fmt.Fprintln(stdout, string(data)); err != nil {
			return 0, errors.Wrap(err, "failed to print the result")
		}
	}
	if err := WriteFile(outputPath, data); err != nil {
		return 0, err
	}
	return len(records), nil
}
