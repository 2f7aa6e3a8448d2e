/*
Package tool defines the functions an agent may call and the registry the agent
loop resolves them from.

Every tool takes one string and returns one string. The model sees a tool as a
name, a description and a JSON schema with a single required string property.
When the model calls the tool its arguments object is unpacked back into that
one string before the function runs.

# Defining a tool

	func lookup(ctx context.Context, query string) (string, error) {
		return "...", nil
	}

	def := tool.Must(lookup,
		tool.Name("wikipedia"),
		tool.Description("Look up a topic on Wikipedia"),
		tool.Parameter("query"),
	)

Without tool.Name the function name is used. Without tool.Parameter the
property is called __arg1.

# Registry

	reg, err := tool.NewRegistry(searchTool, wikiTool, saveTool)
	def, ok := reg.Lookup("wikipedia")

Lookups are by exact name. Registering two tools with the same name fails with
ErrDuplicateTool. Definitions come back in registration order, which is the
order they are advertised to the model.
*/
package tool
