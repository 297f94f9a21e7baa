package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// domainFile mirrors DomainConfig with pointer fields so an omitted key
// leaves the environment value in place.
type domainFile struct {
	ProductionDomain *string  `yaml:"production_domain"`
	StagingHosts     []string `yaml:"staging_hosts"`
	DevelopmentHosts []string `yaml:"development_hosts"`
	SiteURL          *string  `yaml:"site_url"`
	RequireHTTPS     *bool    `yaml:"require_https"`
}

// LoadFile overlays the domain lists from a YAML file, for example:
//
//	production_domain: halyard.group
//	site_url: https://www.halyard.group
//	staging_hosts:
//	  - staging.halyard.group
//	  - "*.preview.halyard.group"
func (d *DomainConfig) LoadFile(path string) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return fmt.Errorf("failed to read domains file %s: %w", path, err)
	}
	return d.apply(raw)
}

func (d *DomainConfig) apply(raw []byte) error {
	var f domainFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("failed to parse domains file: %w", err)
	}

	if f.ProductionDomain != nil {
		d.ProductionDomain = *f.ProductionDomain
	}
	if f.StagingHosts != nil {
		d.StagingHosts = f.StagingHosts
	}
	if f.DevelopmentHosts != nil {
		d.DevelopmentHosts = f.DevelopmentHosts
	}
	if f.SiteURL != nil {
		d.SiteURL = *f.SiteURL
	}
	if f.RequireHTTPS != nil {
		d.RequireHTTPS = *f.RequireHTTPS
	}
	return nil
}
