// Package api embeds the OpenAPI description of the HTTP interface.
package api

import _ "embed"

// OpenAPISpec is the raw OpenAPI YAML document.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
