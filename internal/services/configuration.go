package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Configuration is everything needed to reach one bucket.
// It is passed by value into every store call; nothing keeps a shared client.
type Configuration struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region"`
	BucketName      string `json:"bucketName"`
	Endpoint        string `json:"endpoint,omitempty"`
	ForcePathStyle  bool   `json:"forcePathStyle,omitempty"`
}

const configurationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["accessKeyId", "secretAccessKey", "region", "bucketName"],
  "properties": {
    "accessKeyId":     {"type": "string", "minLength": 1, "pattern": "\\S"},
    "secretAccessKey": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "region":          {"type": "string", "minLength": 1, "pattern": "\\S"},
    "bucketName":      {"type": "string", "minLength": 1, "pattern": "\\S"},
    "endpoint":        {"type": "string"},
    "forcePathStyle":  {"type": "boolean"}
  }
}`

var configurationSchemaLoader = gojsonschema.NewStringLoader(configurationSchema)

// Validate rejects blank required fields before any network call
func (c Configuration) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"accessKeyId", c.AccessKeyID},
		{"secretAccessKey", c.SecretAccessKey},
		{"region", c.Region},
		{"bucketName", c.BucketName},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	return nil
}

// Redacted returns a copy safe to log or echo back to the browser
func (c Configuration) Redacted() Configuration {
	out := c
	out.SecretAccessKey = ""
	return out
}

// ParseConfiguration decodes a JSON configuration blob, checking it against the
// configuration schema first so every missing field is reported at once.
func ParseConfiguration(data []byte) (Configuration, error) {
	result, err := gojsonschema.Validate(configurationSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Configuration{}, &ValidationError{Field: "config", Reason: "is not valid JSON"}
	}

	if !result.Valid() {
		var reasons []string
		field := ""
		for _, desc := range result.Errors() {
			if field == "" {
				field = schemaField(desc)
			}
			reasons = append(reasons, desc.String())
		}
		return Configuration{}, &ValidationError{Field: field, Reason: strings.Join(reasons, "; ")}
	}

	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, &ValidationError{Field: "config", Reason: fmt.Sprintf("cannot decode: %v", err)}
	}
	return cfg, cfg.Validate()
}

func schemaField(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			return prop
		}
	}
	if f := desc.Field(); f != "" && f != "(root)" {
		return f
	}
	return "config"
}
