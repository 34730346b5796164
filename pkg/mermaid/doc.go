// Package mermaid prepares diagram text and invokes the external renderer.
//
// Source preparation ([Prepare]) strips an optional front-matter block and
// prepends an init directive unless the diagram already carries one.
//
// Rendering goes through the narrow [Renderer] interface. [CLI] implements
// it by running mermaid-cli (mmdc) as a subprocess:
//
//	r := mermaid.NewCLI([]string{"mmdc"})
//	if err := r.Check(); err != nil {
//	    return err // mmdc is not installed
//	}
//	err := r.RenderToFile(ctx, "flow.mmd", "flow.svg", mermaid.FormatSVG, 0)
//
// Requires mermaid-cli: npm install -g @mermaid-js/mermaid-cli
package mermaid
