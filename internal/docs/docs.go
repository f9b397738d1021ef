package docs

import (
	_ "embed"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

const page = `<!DOCTYPE html>
<html>
  <head>
    <title>Products API</title>
    <meta charset="utf-8"/>
  </head>
  <body>
    <redoc spec-url="%s"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// Document returns the OpenAPI document as a JSON-serializable value.
func Document() (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	return doc, nil
}

// Register mounts the documentation page at prefix and the document at prefix/openapi.json.
func Register(router fiber.Router, prefix string) error {
	doc, err := Document()
	if err != nil {
		return err
	}
	specURL := prefix + "/openapi.json"

	router.Get(prefix, func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(fmt.Sprintf(page, specURL))
	})
	router.Get(specURL, func(c *fiber.Ctx) error {
		return c.JSON(doc)
	})
	return nil
}
