package model

// Tool is a capability the user can select for the next message. Selection
// only annotates the prompt; the model decides how to apply it.
type Tool struct {
	ID        string
	Name      string
	ShortName string
}

var tools = []Tool{
	{ID: "createImage", Name: "Create Image", ShortName: "Image"},
	{ID: "searchWeb", Name: "Search Web", ShortName: "Search"},
	{ID: "writeCode", Name: "Write Code", ShortName: "Write"},
	{ID: "deepResearch", Name: "Deep Research", ShortName: "Deep Search"},
	{ID: "thinkLonger", Name: "Think Longer", ShortName: "Think"},
}

// LookupTool resolves a tool by its ID.
func LookupTool(id string) (*Tool, bool) {
	for i := range tools {
		if tools[i].ID == id {
			return &tools[i], true
		}
	}
	return nil, false
}

// Tools returns the fixed tool catalogue.
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}
