package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/sweep"
	image          = "ghcr.io/panbanda/sweep"
)

// Manifest is the registry entry (server.json) for the sweep MCP server.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source of the server.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way to run the server. Index dumps are read from paths the
// client passes, so the container needs the project mounted.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	RuntimeArguments     []Argument    `json:"runtimeArguments,omitempty"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []Environment `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

// Argument is a command-line argument of the runtime or the package.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Environment is an environment variable the server reads.
type Environment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

// Transport is the protocol transport of a package.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest returns the server.json for version. A leading "v" is dropped
// and an empty version becomes 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	m := Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Title:       "Sweep",
		Description: "Unused code detection over symbol graph index dumps",
		Version:     version,
		Repository:  &Repository{URL: "https://github.com/panbanda/sweep", Source: "github"},
		Packages: []Package{{
			RegistryType: "oci",
			Identifier:   image + ":" + version,
			RuntimeArguments: []Argument{{
				Type:        "named",
				Name:        "-v",
				Value:       "${PWD}:${PWD}",
				Description: "Mount the project so index dump paths resolve inside the container",
			}},
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []Environment{{
				Name:        "SWEEP_CONFIG",
				Description: "Path to a sweep configuration file",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}
	return json.MarshalIndent(m, "", "  ")
}
