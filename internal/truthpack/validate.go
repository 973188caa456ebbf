package truthpack

import (
	"bytes"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchema lazily compiles and caches one embedded schema, since
// compilation is not free and every record read would otherwise redo it.
type compiledSchema struct {
	once sync.Once
	sch  *jsonschema.Schema
	err  error
}

func (c *compiledSchema) compile(url, src string) (*jsonschema.Schema, error) {
	c.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			c.err = err
			return
		}
		if err := compiler.AddResource(url, doc); err != nil {
			c.err = err
			return
		}
		c.sch, c.err = compiler.Compile(url)
	})
	return c.sch, c.err
}

var (
	routesSch    compiledSchema
	envSch       compiledSchema
	authSch      compiledSchema
	contractsSch compiledSchema
)

// validateJSON checks raw against the named record's embedded schema.
// additionalProperties is true throughout every schema, so this only
// ever catches a structurally corrupt record, never an unrecognized
// forward-compatible field.
func validateJSON(schema *compiledSchema, url, src string, raw []byte) error {
	sch, err := schema.compile(url, src)
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return sch.Validate(instance)
}
