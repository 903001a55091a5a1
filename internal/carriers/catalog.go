package carriers

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type yamlCatalog struct {
	Catalog map[string]struct {
		Services []Service `yaml:"services"`
	} `yaml:"catalog"`
}

var (
	catalogOnce sync.Once
	catalog     map[string][]Service
	catalogErr  error
)

func loadCatalog() (map[string][]Service, error) {
	catalogOnce.Do(func() {
		var spec yamlCatalog
		if err := yaml.Unmarshal(catalogYAML, &spec); err != nil {
			catalogErr = fmt.Errorf("parse carrier catalog: %w", err)
			return
		}
		catalog = make(map[string][]Service, len(spec.Catalog))
		for name, entry := range spec.Catalog {
			catalog[strings.ToLower(name)] = entry.Services
		}
	})
	return catalog, catalogErr
}

// CatalogServices returns the bundled service list for a carrier. Adapters
// serve ListServices from this catalog so codes stay in one place.
func CatalogServices(carrier string) []Service {
	c, err := loadCatalog()
	if err != nil {
		return nil
	}
	services := c[strings.ToLower(strings.TrimSpace(carrier))]
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// CatalogServiceName resolves a service code to its display name, falling
// back to the code itself for anything not in the catalog.
func CatalogServiceName(carrier, code string) string {
	for _, s := range CatalogServices(carrier) {
		if strings.EqualFold(s.Code, code) {
			return s.Name
		}
	}
	return code
}
