//go:build swag

package swaggerkit

import docs "callerid/internal/services/api/docs"

// docReader returns the document swag generated from the handler annotations
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }
