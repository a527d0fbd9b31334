// internal/request/schema.go
//
// The donation-request Validation Schema.
//
// The rules live in forms/donation-request.yaml, embedded here and
// registered with form.Default so GET /api/forms/request/donation serves the
// same definition the server enforces.

package request

import (
	"embed"

	"github.com/plasmapioneers/portal/internal/form"
)

// FormID identifies the donation request form.
const FormID = "request/donation"

//go:embed forms/*.yaml
var formsFS embed.FS

var schema *form.FormDef

func init() {
	reg := form.NewRegistry()
	if err := reg.RegisterFS(formsFS, "forms"); err != nil {
		panic(err)
	}
	fd, ok := reg.Get(FormID)
	if !ok {
		panic("request: " + FormID + " missing from embedded forms")
	}
	schema = fd
	form.Default.Register(fd)
}

// Schema returns the parsed form definition.
func Schema() *form.FormDef { return schema }

// Validate checks in against the schema.  It returns one message per
// violated field, or nil when in is valid.  Pure: same input, same result.
func Validate(in Input) map[string]string {
	return form.FieldMessages(form.Validate(schema, in.values()))
}
