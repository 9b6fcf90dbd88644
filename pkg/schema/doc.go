// Package schema describes the expected shape of loosely-typed objects
// (maps decoded from JSON or YAML) and reports the first field that does not conform.
//
// Schemas are ordered so that checks are deterministic:
//
//	step := schema.Schema{
//	    schema.Required("type", schema.OneOf("greeting", "menu", "end")),
//	    schema.Optional("message", schema.String()),
//	    schema.Optional("options", schema.List(schema.Object())),
//	}
//
//	if err := step.Check(data); err != nil {
//	    // err.Key names the offending field
//	}
//
// Fields not listed in a schema are ignored, which keeps documents forward compatible.
// The package has no dependencies beyond the standard library.
package schema
