package sheet

import (
	"strings"

	"rosterbot/internal/domain"
)

// Schema maps sheet column positions to record fields. It is a contract
// with the form behind the spreadsheet, not something inferred from the
// header row. A negative index marks a column the sheet does not have.
type Schema struct {
	Timestamp   int  `yaml:"timestamp"`
	Region      int  `yaml:"region"`
	OrgName     int  `yaml:"org_name"`
	Boxes       int  `yaml:"boxes"`
	Quantity    int  `yaml:"quantity"`
	Remarks     int  `yaml:"remarks"`
	ManagerName int  `yaml:"manager_name"`
	Delimiter   rune `yaml:"-"`
}

// DefaultSchema is the layout of the published survey sheet:
// A timestamp, B region, U organization, V boxes, W quantity, X remarks,
// Z manager.
func DefaultSchema() Schema {
	return Schema{
		Timestamp:   0,
		Region:      1,
		OrgName:     20,
		Boxes:       21,
		Quantity:    22,
		Remarks:     23,
		ManagerName: 25,
		Delimiter:   ',',
	}
}

func (s Schema) delimiter() rune {
	if s.Delimiter == 0 {
		return ','
	}
	return s.Delimiter
}

type Parser struct {
	schema  Schema
	aliases map[string]string
}

// NewParser builds a parser for one column layout and name-correction
// table. aliases may be nil.
func NewParser(schema Schema, aliases map[string]string) *Parser {
	copied := make(map[string]string, len(aliases))
	for k, v := range aliases {
		copied[k] = v
	}
	return &Parser{schema: schema, aliases: copied}
}

// Parse converts a whole sheet export into records. Blank lines are
// dropped, the first remaining line is the header, and rows without an
// organization name are skipped. Malformed rows degrade to zero values.
func (p *Parser) Parse(text string) []domain.SurveyRecord {
	lines := nonBlankLines(text)
	if len(lines) <= 1 {
		return nil
	}

	records := make([]domain.SurveyRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rec := p.ParseRow(SplitLine(line, p.schema.delimiter()))
		if strings.TrimSpace(rec.OrgName) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// ParseRow maps one split line onto a record using the schema.
func (p *Parser) ParseRow(fields Fields) domain.SurveyRecord {
	s := p.schema
	return domain.SurveyRecord{
		Timestamp:   fields.At(s.Timestamp),
		Region:      fields.At(s.Region),
		OrgName:     p.ResolveName(fields.At(s.OrgName)),
		Boxes:       ParseQuantity(fields.At(s.Boxes)),
		Quantity:    ParseQuantity(fields.At(s.Quantity)),
		Remarks:     fields.At(s.Remarks),
		ManagerName: fields.At(s.ManagerName),
	}
}

// ResolveName applies the alias table to a raw organization name.
func (p *Parser) ResolveName(raw string) string {
	raw = strings.TrimSpace(raw)
	if canonical, ok := p.aliases[raw]; ok && canonical != "" {
		return canonical
	}
	return raw
}

// Header returns the header row of a sheet export, or nil for an empty one.
func Header(text string, delim rune) Fields {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return nil
	}
	if delim == 0 {
		delim = ','
	}
	return SplitLine(lines[0], delim)
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
