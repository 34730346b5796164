// Package diagram renders Mermaid sources into their artifact sets.
//
// [Renderer] handles one source file: it prepares the text (front matter
// stripped, init directive injected), writes it to a scratch file that is
// always removed, and invokes the external renderer once per artifact.
// The first failing invocation aborts the remaining ones for that source.
//
// [Batch] resolves a working set of sources from name/glob/path patterns
// (or every source in the directory) and renders each one, tallying
// failures without stopping.
//
//	r := &diagram.Renderer{
//	    Mermaid: mermaid.NewCLI([]string{"mmdc"}),
//	    Layout:  artifact.Layout{Dir: "diagrams", Variants: variants},
//	    Init:    fragment,
//	    Formats: []mermaid.Format{mermaid.FormatSVG, mermaid.FormatPNG},
//	}
//	b := &diagram.Batch{Renderer: r, SourceDir: "diagrams", Extension: ".mmd"}
//	summary, err := b.RenderAll(ctx, []string{"flo*"})
//	os.Exit(summary.ExitCode())
package diagram
