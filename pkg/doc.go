// Package pkg provides the libraries behind mmdrender, a Mermaid diagram
// renderer.
//
// # Overview
//
// mmdrender turns a directory of Mermaid sources (*.mmd) into SVG and PNG
// images via mermaid-cli, and can keep those images in sync while the
// sources are edited. The pkg directory is organized by concern:
//
//  1. [mermaid] - Source preparation and the mermaid-cli invocation
//  2. [artifact] - Artifact naming and on-disk reconciliation
//  3. [diagram] - Single-diagram and batch rendering
//  4. [watch] - Filesystem events and artifact reconciliation
//  5. [config], [theme] - Project configuration and the shared theme
//  6. [cache], [errors], [observability], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	*.mmd source
//	     ↓
//	[mermaid.Prepare] (strip front matter, inject theme)
//	     ↓
//	scratch file → [mermaid.CLI] (mmdc -i -o -e)
//	     ↓
//	<stem>.svg, <stem>@4x.png
//
// In watch mode [watch.Source] feeds filesystem events to
// [watch.Coordinator], which renders, deletes, or renames artifacts.
//
// [mermaid]: github.com/matzehuels/mmdrender/pkg/mermaid
// [artifact]: github.com/matzehuels/mmdrender/pkg/artifact
// [diagram]: github.com/matzehuels/mmdrender/pkg/diagram
// [watch]: github.com/matzehuels/mmdrender/pkg/watch
// [config]: github.com/matzehuels/mmdrender/pkg/config
// [theme]: github.com/matzehuels/mmdrender/pkg/theme
// [cache]: github.com/matzehuels/mmdrender/pkg/cache
// [errors]: github.com/matzehuels/mmdrender/pkg/errors
// [observability]: github.com/matzehuels/mmdrender/pkg/observability
// [buildinfo]: github.com/matzehuels/mmdrender/pkg/buildinfo
// [mermaid.Prepare]: github.com/matzehuels/mmdrender/pkg/mermaid.Prepare
// [mermaid.CLI]: github.com/matzehuels/mmdrender/pkg/mermaid.CLI
// [watch.Source]: github.com/matzehuels/mmdrender/pkg/watch.Source
// [watch.Coordinator]: github.com/matzehuels/mmdrender/pkg/watch.Coordinator
package pkg
