// FHIR resource structure and relationship exploration.
//
// Only the Patient resource type is currently supported; every other
// type yields a structured "not yet supported" result rather than a
// fault. This is deliberate fallback behavior, not a defect: the
// explorer's answers are fed into model prompts and generated code, and
// an explicit error object is something that code can handle.

package fhir

import (
	"context"
	"fmt"
	"sort"
)

// sampleID is the well-known sample resource on public test servers.
const sampleID = "example"

// referenceField names a reference-bearing field on a resource and the
// resource type it points at. Relationship discovery is a shallow scan
// over this fixed list, not a generic graph walk.
type referenceField struct {
	Field string
	Type  string
}

// patientReferenceFields are the known reference-bearing fields of the
// Patient resource.
var patientReferenceFields = []referenceField{
	{Field: "managingOrganization", Type: "Organization"},
	{Field: "generalPractitioner", Type: "Practitioner"},
}

// Structure describes a resource type's field set, with a sample
// document. Exactly one of the data fields or Error is populated.
type Structure struct {
	ResourceType string   `json:"resourceType,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Sample       Document `json:"sample,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Reference is one discovered relationship from a resource to another.
type Reference struct {
	Type      string      `json:"type"`
	Field     string      `json:"field"`
	Reference interface{} `json:"reference"`
}

// Relationships holds the references discovered on a resource. Exactly
// one of References or Error is populated.
type Relationships struct {
	References []Reference `json:"references,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Explorer derives structural and relationship information from fetched
// resources.
type Explorer struct {
	client *Client
}

// NewExplorer creates an explorer backed by the given client.
func NewExplorer(client *Client) *Explorer {
	return &Explorer{client: client}
}

// ExploreStructure returns the field set of a resource type, derived
// from the server's sample resource. Unsupported types return an error
// object without performing any network I/O.
func (e *Explorer) ExploreStructure(ctx context.Context, resourceType string) Structure {
	if resourceType != "Patient" {
		return Structure{Error: fmt.Sprintf("Resource type %s not yet supported", resourceType)}
	}

	sample, err := e.client.Fetch(ctx, resourceType, sampleID)
	if err != nil {
		return Structure{Error: fmt.Sprintf("Error exploring %s: %v", resourceType, err)}
	}

	fields := make([]string, 0, len(sample))
	for field := range sample {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return Structure{
		ResourceType: "Patient",
		Fields:       fields,
		Sample:       sample,
	}
}

// GetRelationships returns the references embedded in a resource,
// discovered by scanning the fixed list of known reference-bearing
// field names for the resource type. Unsupported types return an error
// object without performing any network I/O.
func (e *Explorer) GetRelationships(ctx context.Context, id, resourceType string) Relationships {
	if resourceType != "Patient" {
		return Relationships{Error: fmt.Sprintf("Resource type %s not yet supported", resourceType)}
	}

	doc, err := e.client.Fetch(ctx, resourceType, id)
	if err != nil {
		return Relationships{Error: fmt.Sprintf("Error exploring relationships: %v", err)}
	}

	references := []Reference{}
	for _, rf := range patientReferenceFields {
		if value, ok := doc[rf.Field]; ok {
			references = append(references, Reference{
				Type:      rf.Type,
				Field:     rf.Field,
				Reference: value,
			})
		}
	}

	return Relationships{References: references}
}
