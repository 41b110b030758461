package yang_test

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jacoelho/yang"
	"github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/pkg/schema"
	"github.com/jacoelho/yang/pkg/xmldoc"
)

const topSchema = `
module example {
  namespace "urn:example";
  prefix ex;
  container top {
    leaf name { type string; mandatory true; }
    leaf age { type uint8 { range "0..150"; } }
  }
}`

const listSchema = `
module inventory {
  namespace "urn:inventory";
  prefix inv;
  container items {
    list item {
      key "id";
      leaf id { type uint32; }
      leaf color { type enumeration { enum red; enum blue; } }
      leaf count { type int8; }
    }
  }
}`

func TestValidateScenario(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		outcome yang.Outcome
		paths   []string
		text    string
	}{
		{
			name:    "valid",
			doc:     `<top xmlns="urn:example"><name>Ann</name><age>30</age></top>`,
			outcome: yang.Success,
			text:    "Validation successful",
		},
		{
			name:    "age out of range",
			doc:     `<top xmlns="urn:example"><name>Ann</name><age>200</age></top>`,
			outcome: yang.Failure,
			paths:   []string{"top/age"},
			text:    "invalid value at top/age",
		},
		{
			name:    "name missing",
			doc:     `<top xmlns="urn:example"><age>30</age></top>`,
			outcome: yang.Failure,
			paths:   []string{"top/name"},
			text:    "missing mandatory node at top/name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := yang.Validate(topSchema, tt.doc)
			if res.Outcome != tt.outcome {
				t.Fatalf("Outcome = %s, want %s (%v)", res.Outcome, tt.outcome, res.Err)
			}
			if got := paths(res.Diagnostics); strings.Join(got, ",") != strings.Join(tt.paths, ",") {
				t.Fatalf("paths = %v, want %v", got, tt.paths)
			}
			if got := res.String(); got != tt.text {
				t.Fatalf("String() = %q, want %q", got, tt.text)
			}
			if res.Valid() != (tt.outcome == yang.Success) {
				t.Fatalf("Valid() = %v", res.Valid())
			}
		})
	}
}

func TestResultJSON(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "success",
			doc:  `<top xmlns="urn:example"><name>Ann</name><age>30</age></top>`,
			want: `{"valid":true,"message":"Validation successful"}`,
		},
		{
			name: "failure",
			doc:  `<top xmlns="urn:example"><name>Ann</name><age>200</age></top>`,
			want: `{"valid":false,"diagnostics":[{"code":"invalid-value","message":"invalid value","path":"top/age","severity":"error","line":1,"column":42}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(yang.Validate(topSchema, tt.doc))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("JSON = %s, want %s", got, tt.want)
			}
		})
	}

	internal, err := json.Marshal(yang.Result{Outcome: yang.Internal, Err: errors.NewInternalf("boom")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"valid":false,"internal_error":"internal error: boom"}`; string(internal) != want {
		t.Fatalf("JSON = %s, want %s", internal, want)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	docs := []string{
		`<top><name>Ann</name></top>`,
		`<top><age>x</age><extra/></top>`,
		`<top><name>`,
	}
	for _, doc := range docs {
		first, err := json.Marshal(yang.Validate(topSchema, doc))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		for range 3 {
			again, err := json.Marshal(yang.Validate(topSchema, doc))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(again) != string(first) {
				t.Fatalf("result changed between runs:\n%s\n%s", first, again)
			}
		}
	}
}

func TestValidateCollectsEveryDefect(t *testing.T) {
	doc := `<items xmlns="urn:inventory">
  <item><id>1</id><color>green</color></item>
  <item><id>2</id><count>300</count></item>
  <item><id>1</id></item>
</items>`

	res := yang.Validate(listSchema, doc)
	if res.Outcome != yang.Failure {
		t.Fatalf("Outcome = %s, want failure", res.Outcome)
	}
	want := []string{
		"invalid-enum-value items/item/color",
		"invalid-value items/item/count",
		"duplicate-key items/item",
	}
	var got []string
	for _, d := range res.Diagnostics {
		got = append(got, d.Code+" "+d.Path)
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("diagnostics = %v, want %v", got, want)
	}
	if res.Diagnostics[2].Line != 4 {
		t.Fatalf("duplicate key line = %d, want 4", res.Diagnostics[2].Line)
	}
}

func TestValidateKeyUniqueness(t *testing.T) {
	unique := yang.Validate(listSchema, `<items><item><id>1</id></item><item><id>2</id></item></items>`)
	if !unique.Valid() || len(unique.Diagnostics) != 0 {
		t.Fatalf("distinct keys: %s", unique)
	}

	dup := yang.Validate(listSchema, `<items><item><id>1</id></item><item><id>1</id></item></items>`)
	if dup.Outcome != yang.Failure || len(dup.Diagnostics) != 1 || dup.Diagnostics[0].Code != string(errors.ErrDuplicateKey) {
		t.Fatalf("duplicate keys: %+v", dup)
	}
}

func TestValidateUnknownNodes(t *testing.T) {
	doc := `<top><name>Ann</name><nickname><short>A</short></nickname></top>`

	res := yang.Validate(topSchema, doc)
	if res.Outcome != yang.Failure || len(res.Diagnostics) != 1 {
		t.Fatalf("default policy: %+v", res)
	}
	if d := res.Diagnostics[0]; d.Code != string(errors.ErrUnknownNode) || d.Path != "top/nickname" {
		t.Fatalf("unknown node diagnostic = %+v", d)
	}

	res = yang.ValidateWithOptions(topSchema, doc, yang.NewOptions().WithUnknownNodes(yang.UnknownNodeWarn))
	if res.Outcome != yang.Success || len(res.Diagnostics) != 1 {
		t.Fatalf("warn policy: %+v", res)
	}
	if res.Diagnostics[0].Severity != errors.SeverityWarning {
		t.Fatalf("severity = %s, want warning", res.Diagnostics[0].Severity)
	}

	res = yang.ValidateWithOptions(topSchema, doc, yang.NewOptions().WithUnknownNodes(yang.UnknownNodeIgnore))
	if res.Outcome != yang.Success || len(res.Diagnostics) != 0 {
		t.Fatalf("ignore policy: %+v", res)
	}
}

func TestValidateLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		doc    string
		code   errors.ErrorCode
		line   int
	}{
		{
			name:   "schema syntax",
			schema: "module m {\n  namespace \"urn:m\"\n}",
			doc:    `<a/>`,
			code:   errors.ErrSchemaLoad,
			line:   3,
		},
		{
			name:   "unsupported schema feature",
			schema: "module m {\n  namespace \"urn:m\";\n  prefix m;\n  import other { prefix o; }\n}",
			doc:    `<a/>`,
			code:   errors.ErrSchemaLoad,
			line:   4,
		},
		{
			name:   "empty schema",
			schema: "   ",
			doc:    `<a/>`,
			code:   errors.ErrSchemaLoad,
		},
		{
			name:   "malformed document",
			schema: topSchema,
			doc:    "<top>\n<name>Ann</nome>\n</top>",
			code:   errors.ErrDocumentLoad,
			line:   2,
		},
		{
			name:   "empty document",
			schema: topSchema,
			doc:    "",
			code:   errors.ErrDocumentLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := yang.Validate(tt.schema, tt.doc)
			if res.Outcome != yang.LoadFailure {
				t.Fatalf("Outcome = %s, want load-failure (%v)", res.Outcome, res.Err)
			}
			if len(res.Diagnostics) != 1 {
				t.Fatalf("diagnostics = %v, want one summary", res.Diagnostics)
			}
			d := res.Diagnostics[0]
			if d.Code != string(tt.code) {
				t.Fatalf("Code = %s, want %s", d.Code, tt.code)
			}
			if d.Line != tt.line {
				t.Fatalf("Line = %d, want %d", d.Line, tt.line)
			}
			var le *yang.LoadError
			if !stderrors.As(res.Err, &le) {
				t.Fatalf("Err = %T, want *yang.LoadError", res.Err)
			}
			if res.String() == "" || res.String() == yang.SuccessMessage {
				t.Fatalf("String() = %q", res.String())
			}
		})
	}
}

func TestValidateInternalErrors(t *testing.T) {
	res := yang.ValidateWithOptions(topSchema, `<top><name>a</name></top>`, yang.NewOptions().WithMaxDepth(1))
	if res.Outcome != yang.Internal || !errors.IsInternal(res.Err) {
		t.Fatalf("depth guard: %+v", res)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("internal results carry no diagnostics: %v", res.Diagnostics)
	}

	res = yang.ValidateWithOptions(topSchema, `<top/>`, yang.NewOptions().WithMaxDepth(-1))
	if res.Outcome != yang.Internal {
		t.Fatalf("invalid options: %+v", res)
	}

	var nilEngine *yang.Engine
	if res := nilEngine.Validate(`<top/>`); res.Outcome != yang.Internal {
		t.Fatalf("nil engine: %+v", res)
	}
}

type fixedSchema struct{ model *schema.Model }

func (p fixedSchema) ParseSchema(string) (*schema.Model, error) { return p.model, nil }

type failingDocument struct{ err error }

func (p failingDocument) ParseDocument(string) (*xmldoc.Tree, error) { return nil, p.err }

func TestCustomParsers(t *testing.T) {
	model := &schema.Model{
		Name: "fixed",
		Roots: []*schema.Node{{
			Name: "flag",
			Kind: schema.KindLeaf,
			Type: &schema.Type{Name: "boolean", Base: schema.BaseBoolean},
			Max:  1,
		}},
	}
	opts := yang.NewOptions().WithSchemaParser(fixedSchema{model: model})

	res := yang.ValidateWithOptions("ignored", `<flag>maybe</flag>`, opts)
	if res.Outcome != yang.Failure || res.String() != "invalid value at flag" {
		t.Fatalf("custom schema parser: %+v", res)
	}

	boom := stderrors.New("unreadable")
	res = yang.ValidateWithOptions("ignored", `<flag/>`, opts.WithDocumentParser(failingDocument{err: boom}))
	if res.Outcome != yang.LoadFailure || !stderrors.Is(res.Err, boom) {
		t.Fatalf("custom document parser: %+v", res)
	}
	if res.Diagnostics[0].Message != "unreadable" {
		t.Fatalf("Message = %q", res.Diagnostics[0].Message)
	}
}

type panickingSchema struct{}

func (panickingSchema) ParseSchema(string) (*schema.Model, error) { panic("boom") }

func TestValidateRecoversSchemaParserPanic(t *testing.T) {
	opts := yang.NewOptions().WithSchemaParser(panickingSchema{})

	res := yang.ValidateWithOptions("x", `<a/>`, opts)
	if res.Outcome != yang.Internal || !errors.IsInternal(res.Err) {
		t.Fatalf("parser panic: %+v", res)
	}
	if !strings.Contains(res.Err.Error(), "schema parser panic: boom") {
		t.Fatalf("Err = %v", res.Err)
	}

	engine, err := yang.Compile("x", opts)
	if engine != nil || !errors.IsInternal(err) {
		t.Fatalf("Compile() = %v, %v", engine, err)
	}
}

type recorder struct {
	outcomes []string
	hits     []bool
}

func (r *recorder) ObserveValidation(outcome string, _ time.Duration, _ []errors.Diagnostic) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorder) ObserveSchemaCache(hit bool) {
	r.hits = append(r.hits, hit)
}

func TestRecorderAndCache(t *testing.T) {
	rec := &recorder{}
	opts := yang.NewOptions().WithCache(true).WithRecorder(rec)
	schemaText := strings.Replace(topSchema, "module example", "module recorder-cache-test", 1)

	first := yang.ValidateWithOptions(schemaText, `<top><name>a</name></top>`, opts)
	second := yang.ValidateWithOptions(schemaText, `<top><age>1</age></top>`, opts)
	if first.Outcome != yang.Success || second.Outcome != yang.Failure {
		t.Fatalf("outcomes = %s, %s", first.Outcome, second.Outcome)
	}
	if strings.Join(rec.outcomes, ",") != "success,failure" {
		t.Fatalf("recorded outcomes = %v", rec.outcomes)
	}
	if len(rec.hits) != 2 || rec.hits[0] || !rec.hits[1] {
		t.Fatalf("cache hits = %v, want [false true]", rec.hits)
	}

	bad := yang.ValidateWithOptions("module {", `<a/>`, opts)
	if bad.Outcome != yang.LoadFailure || rec.outcomes[len(rec.outcomes)-1] != "load-failure" {
		t.Fatalf("load failure not recorded: %+v %v", bad, rec.outcomes)
	}
}

func TestEngineReuse(t *testing.T) {
	engine, err := yang.Compile(topSchema, yang.NewOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if engine.Model().Name != "example" {
		t.Fatalf("Model().Name = %q", engine.Model().Name)
	}
	if res := engine.Validate(`<top><name>a</name></top>`); !res.Valid() {
		t.Fatalf("valid document: %s", res)
	}
	if res := engine.Validate(`<top/>`); res.Valid() {
		t.Fatalf("invalid document accepted")
	}

	_, err = yang.Compile("module m { namespace \"urn:m\"; prefix m; list l { leaf a { type string; } } }", yang.NewOptions())
	var le *yang.LoadError
	if !stderrors.As(err, &le) || le.Source != "schema" {
		t.Fatalf("Compile() error = %v, want schema LoadError", err)
	}
	var sem *errors.SemanticError
	if !stderrors.As(err, &sem) {
		t.Fatalf("Compile() error = %v, want wrapped SemanticError", err)
	}
}

func paths(diags []errors.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Path)
	}
	return out
}
