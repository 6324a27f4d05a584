package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/model"
)

const responseSchemaURL = "response.json"

const responseSchema = `{
  "type": "object",
  "required": ["extracted_attributes"],
  "properties": {
    "extracted_attributes": {
      "type": "object",
      "additionalProperties": {
        "type": ["object", "null"],
        "properties": {
          "value": {"type": ["string", "number", "null"]},
          "source_text": {"type": ["string", "null"]},
          "section": {"type": ["string", "null"]}
        }
      }
    },
    "period_label": {"type": ["string", "null"]}
  }
}`

type response struct {
	Attributes  map[string]*attributeAnswer `json:"extracted_attributes"`
	PeriodLabel *string                     `json:"period_label"`
}

type attributeAnswer struct {
	Value      json.RawMessage `json:"value"`
	SourceText *string         `json:"source_text"`
	Section    *string         `json:"section"`
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(responseSchemaURL, strings.NewReader(responseSchema)); err != nil {
		return nil, eris.Wrap(err, "extract: add response schema")
	}
	schema, err := compiler.Compile(responseSchemaURL)
	if err != nil {
		return nil, eris.Wrap(err, "extract: compile response schema")
	}
	return schema, nil
}

// jsonObject returns the text from the first '{' to the last '}'. Models
// sometimes wrap the object in prose or code fences.
func jsonObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parseResponse validates the model's reply and maps it to candidates. Null
// values are dropped, names are matched against cat, and a missing section
// falls back to the block the source text came from.
func parseResponse(schema *jsonschema.Schema, text string, doc model.DocumentRef, blocks []model.TextBlock, cat *catalog.Catalog) (model.Proposal, error) {
	obj, ok := jsonObject(text)
	if !ok {
		return model.Proposal{}, eris.New("extract: no JSON object in model response")
	}

	var generic any
	if err := json.Unmarshal([]byte(obj), &generic); err != nil {
		return model.Proposal{}, eris.Wrap(err, "extract: decode model response")
	}
	if err := schema.Validate(generic); err != nil {
		return model.Proposal{}, eris.Wrap(err, "extract: model response does not match schema")
	}

	var resp response
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return model.Proposal{}, eris.Wrap(err, "extract: decode model response")
	}

	var out model.Proposal
	if resp.PeriodLabel != nil {
		out.PeriodLabel = strings.TrimSpace(*resp.PeriodLabel)
	}

	for name, ans := range resp.Attributes {
		if ans == nil {
			continue
		}
		raw, ok := rawValue(ans.Value)
		if !ok {
			continue
		}
		if a, found := cat.Lookup(name); found {
			name = a.Name
		}
		c := model.RawCandidate{
			AttributeName: name,
			RawValueText:  raw,
			SourceText:    deref(ans.SourceText),
			SectionLabel:  deref(ans.Section),
			DocumentID:    doc.ID,
		}
		if c.SourceText == "" {
			c.SourceText = raw
		}
		if c.SectionLabel == "" {
			c.SectionLabel = sectionOf(blocks, c.SourceText, raw)
		}
		out.Candidates = append(out.Candidates, c)
	}
	sortCandidates(out.Candidates)
	return out, nil
}

// rawValue returns the printed text of a JSON string or number.
func rawValue(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return "", false
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return string(v), true
}

func sectionOf(blocks []model.TextBlock, needles ...string) string {
	for _, n := range needles {
		if strings.TrimSpace(n) == "" {
			continue
		}
		for _, b := range blocks {
			if strings.Contains(b.Text, n) {
				return b.SectionLabel
			}
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
