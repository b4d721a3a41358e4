package provider

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateCredentials checks a field map against a provider's credential
// schema: no unknown keys, required fields present, typed fields well-formed.
// Blank optional values skip type validation so partial saves stay possible.
func ValidateCredentials(desc Descriptor, fields map[string]string) error {
	known := make(map[string]CredentialField, len(desc.CredentialSchema))
	for _, field := range desc.CredentialSchema {
		known[field.Key] = field
	}

	for key := range fields {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("unknown credential field %q for provider %s", key, desc.Key)
		}
	}

	for _, field := range desc.CredentialSchema {
		value, present := fields[field.Key]
		if field.Required && (!present || value == "") {
			return fmt.Errorf("credential field %q is required for provider %s", field.Key, desc.Key)
		}
		if value == "" {
			continue
		}
		if err := validateFieldValue(field, value); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldValue(field CredentialField, value string) error {
	rule := ""
	switch field.Type {
	case "url":
		rule = "url"
	case "email":
		rule = "email"
	case "json":
		rule = "json"
	}
	if field.Rule != "" {
		if rule != "" {
			rule += ","
		}
		rule += field.Rule
	}
	if rule == "" {
		return nil
	}
	if err := validate.Var(value, rule); err != nil {
		return fmt.Errorf("credential field %q is invalid: %w", field.Key, err)
	}
	return nil
}

// ValidateStruct validates a request struct using its validate tags.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}
