package mcpserver

// PageFormat describes how folio turns Markdown files into pages. Tools that
// write documentation should follow it so links and titles resolve.
const PageFormat = `# Folio Page Format

Every page is a Markdown file under the docs directory.

## Structure

` + "```" + `markdown
---
title: Human-readable title   # OPTIONAL – overrides the first heading
---

# Heading

Body text in standard Markdown.
` + "```" + `

## Rules

1. **Frontmatter is optional.** When present, the ` + "`---`" + ` fence must be the first
   line of the file. Values are plain scalars; ` + "`title`" + ` is the only key folio reads.
2. **Titles** come from frontmatter ` + "`title`" + `, then the first level-one heading, then
   the file name.
3. **README.md** is a directory's landing page and is served at the directory URI
   (` + "`guide/README.md`" + ` → ` + "`/guide`" + `). Directories without one get a generated index.
4. **URIs** drop the ` + "`.md`" + ` extension: ` + "`guide/setup.md`" + ` → ` + "`/guide/setup`" + `.
5. **Links** to other pages use their URI: ` + "`[Setup](/guide/setup)`" + `. Relative links
   resolve against the linking page. Fragments (` + "`#heading`" + `) are ignored when links are checked.
6. **Assets** (images, downloads) sit next to the pages that use them and are copied as-is.
7. **Diagrams** in fenced ` + "`mermaid`" + ` blocks render in the browser.
8. **Hidden files** (names starting with ` + "`.`" + `) are ignored.

## Example

` + "```" + `markdown
---
title: Setting up
---

# Setting up

Install the tools first, then read the [configuration guide](/guide/configuration#options).

![Architecture](architecture.png)
` + "```" + `
`
