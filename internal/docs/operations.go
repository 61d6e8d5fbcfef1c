package docs

import (
	"github.com/getkin/kin-openapi/openapi3"
)

func jsonAPIContent(schema *openapi3.Schema) openapi3.Content {
	return openapi3.NewContentWithSchema(schema, []string{JSONAPIMediaType})
}

func okResponse(schema *openapi3.Schema) *openapi3.ResponseRef {
	resp := openapi3.NewResponse().WithDescription("Successful response")
	if schema != nil {
		resp.WithContent(jsonAPIContent(schema))
	}
	return &openapi3.ResponseRef{Value: resp}
}

func requestBody(schema *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithContent(jsonAPIContent(schema))}
}

func (b *Builder) operation(p *PathMetaData, description, code string, response *openapi3.ResponseRef) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.Tags = []string{b.tagNameOf(p.Type)}
	op.Description = description
	op.Responses = openapi3.Responses{code: response}
	return op
}

func (b *Builder) lineageParameters(lineage []*PathMetaData) openapi3.Parameters {
	params := make(openapi3.Parameters, 0, len(lineage))
	for _, item := range lineage {
		params = append(params, b.pathParameter(item))
	}
	return params
}

func appendParameters(op *openapi3.Operation, params ...*openapi3.ParameterRef) {
	for _, p := range params {
		if p != nil {
			op.Parameters = append(op.Parameters, p)
		}
	}
}

// collectionPath lists and creates the targets of p
func (b *Builder) collectionPath(p *PathMetaData) *openapi3.PathItem {
	item := &openapi3.PathItem{Parameters: b.lineageParameters(p.Lineage)}
	ref := b.schemaRef(p.Type)

	var getDescription, postDescription string
	var canGet, canPost bool
	if p.IsRoot() {
		getDescription = "Returns the collection of type " + p.alias
		postDescription = "Creates an item of type " + p.alias
		canGet = b.canRead(p.Type)
		canPost = b.canCreate(p.Type)
	} else {
		parent := p.parent().Type
		getDescription = "Returns the relationship " + p.Name
		postDescription = "Creates an item of type " + p.alias + " and adds it to " + p.Name
		canGet = b.canReadField(parent, p.Name) && b.canRead(p.Type)
		canPost = b.canUpdateField(parent, p.Name) && b.canCreate(p.Type)
	}

	if canPost {
		item.Post = b.operation(p, postDescription, "201", okResponse(datum(ref)))
		item.Post.RequestBody = requestBody(datum(ref))
	}

	if canGet {
		item.Get = b.operation(p, getDescription, "200", okResponse(data(ref)))
		appendParameters(item.Get, b.sortParameter(p), b.sparseFieldsParameter(p), b.includeParameter(p))
		appendParameters(item.Get, b.filterParameters(p)...)
		appendParameters(item.Get, b.pageParameters(p)...)
	}

	return b.decorate(item)
}

// instancePath reads, modifies and deletes one target of p
func (b *Builder) instancePath(p *PathMetaData) *openapi3.PathItem {
	item := &openapi3.PathItem{Parameters: b.lineageParameters(p.FullLineage())}
	ref := b.schemaRef(p.Type)

	var canGet, canPatch, canDelete bool
	if p.IsRoot() {
		canGet = b.canReadByID(p.Type)
		canPatch = b.canUpdateByID(p.Type)
		canDelete = b.canDeleteByID(p.Type)
	} else {
		parent := p.parent().Type
		canGet = b.canReadField(parent, p.Name) && b.canReadByID(p.Type)
		canPatch = b.canUpdateField(parent, p.Name)
		canDelete = b.canUpdateField(parent, p.Name)
	}

	if canGet {
		item.Get = b.operation(p, "Returns an instance of type "+p.alias, "200", okResponse(datum(ref)))
		appendParameters(item.Get, b.sparseFieldsParameter(p), b.includeParameter(p))
	}

	if canPatch {
		item.Patch = b.operation(p, "Modifies an instance of type "+p.alias, "204", okResponse(nil))
		item.Patch.RequestBody = requestBody(datum(ref))
	}

	if canDelete {
		item.Delete = b.operation(p, "Deletes an instance of type "+p.alias, "204", okResponse(nil))
	}

	return b.decorate(item)
}

// relationshipPath manages the resource linkage between p and its parent
func (b *Builder) relationshipPath(p *PathMetaData) *openapi3.PathItem {
	item := &openapi3.PathItem{Parameters: b.lineageParameters(p.Lineage)}
	linkage := identifier(p.alias)
	parent := p.parent().Type

	if b.dictionary.RelationshipType(parent, p.Name).IsToMany() {
		if b.canReadField(parent, p.Name) && b.canRead(p.Type) {
			item.Get = b.operation(p, "Returns the relationship identifiers for "+p.Name, "200", okResponse(data(linkage)))
		}

		if b.canUpdateField(parent, p.Name) {
			item.Post = b.operation(p, "Adds items to the relationship "+p.Name, "201", okResponse(data(linkage)))
			item.Post.RequestBody = requestBody(data(linkage))

			item.Patch = b.operation(p, "Replaces the relationship "+p.Name, "204", okResponse(nil))
			item.Patch.RequestBody = requestBody(data(linkage))

			item.Delete = b.operation(p, "Deletes items from the relationship "+p.Name, "204", okResponse(nil))
			item.Delete.RequestBody = requestBody(data(linkage))
		}
	} else {
		if b.canReadField(parent, p.Name) && b.canRead(p.Type) {
			item.Get = b.operation(p, "Returns the relationship identifiers for "+p.Name, "200", okResponse(datum(linkage)))
		}

		if b.canUpdateField(parent, p.Name) {
			item.Patch = b.operation(p, "Replaces the relationship "+p.Name, "204", okResponse(nil))
			item.Patch.RequestBody = requestBody(datum(linkage))
		}
	}

	if item.Get != nil {
		appendParameters(item.Get, b.filterParameters(p)...)
		appendParameters(item.Get, b.pageParameters(p)...)
	}

	return b.decorate(item)
}

// decorate adds the global responses to each operation and the global
// parameters to the path
func (b *Builder) decorate(item *openapi3.PathItem) *openapi3.PathItem {
	for code, response := range b.globalResponses {
		for _, op := range []*openapi3.Operation{item.Get, item.Post, item.Patch, item.Delete} {
			if op != nil {
				op.Responses[code] = &openapi3.ResponseRef{Value: response}
			}
		}
	}
	for _, param := range b.globalParams {
		item.Parameters = append(item.Parameters, &openapi3.ParameterRef{Value: param})
	}
	return item
}
