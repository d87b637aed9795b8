package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// markerPrefix starts the line that precedes every file in content and
// metrics modes.
const markerPrefix = ">>>> "

func markerLine(relPath string) string {
	return markerPrefix + relPath + "\n"
}

// Aggregate is the ordered, deduplicated set of successfully read files.
type Aggregate struct {
	Entries []ReadResult
	Summary Summary
}

// aggregate drops failed reads, sorts by relative path and removes duplicate
// paths. The result does not depend on the order of results.
func aggregate(results []ReadResult) *Aggregate {
	entries := make([]ReadResult, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		entries = append(entries, r)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	deduped := entries[:0]
	for i, r := range entries {
		if i > 0 && r.RelPath == entries[i-1].RelPath {
			continue
		}
		deduped = append(deduped, r)
	}

	summary := Summary{TokensAvailable: true, Failed: failed}
	for _, r := range deduped {
		summary.TotalFiles++
		summary.TotalSize += r.Bytes
		if r.TokensOK {
			summary.TotalTokens += r.Tokens
		} else {
			summary.TokensAvailable = false
		}
	}
	return &Aggregate{Entries: deduped, Summary: summary}
}

// Render writes the aggregate to w in the given mode. The first write error
// is returned; nothing is written after it.
func (a *Aggregate) Render(w io.Writer, mode RenderMode) error {
	bw := bufio.NewWriter(w)
	switch mode {
	case ModeContent:
		for _, e := range a.Entries {
			bw.WriteString(markerLine(e.RelPath))
			bw.WriteString(e.Content)
		}
	case ModePathsOnly:
		for _, e := range a.Entries {
			bw.WriteString(e.RelPath)
			bw.WriteByte('\n')
		}
	case ModeMetrics:
		for _, e := range a.Entries {
			bw.WriteString(markerLine(e.RelPath))
			fmt.Fprintf(bw, "%s tokens, %d bytes\n\n", tokenCount(e.Tokens, e.TokensOK), e.Bytes)
		}
		fmt.Fprintf(bw, "Total tokens of input files: %s\n", tokenCount(a.Summary.TotalTokens, a.Summary.TokensAvailable))
	case ModeTree:
		paths := make([]string, len(a.Entries))
		for i, e := range a.Entries {
			paths[i] = e.RelPath
		}
		bw.WriteString(printTree(buildTree(paths)))
	default:
		return fmt.Errorf("unknown render mode %d", mode)
	}
	return bw.Flush()
}

const tokensUnavailable = "unavailable"

func tokenCount(n int, ok bool) string {
	if !ok {
		return tokensUnavailable
	}
	return fmt.Sprintf("%d", n)
}

// Node represents an entry in the directory tree structure.
type Node struct {
	Name     string
	IsDir    bool
	Children []*Node
}

// buildTree constructs a hierarchical tree from '/'-separated relative paths,
// creating intermediate directories as needed.
func buildTree(paths []string) *Node {
	root := &Node{Name: ".", IsDir: true}
	dirs := map[string]*Node{"": root}

	for _, p := range paths {
		parts := strings.Split(p, "/")
		parent := root
		for i, part := range parts[:len(parts)-1] {
			key := strings.Join(parts[:i+1], "/")
			dir, ok := dirs[key]
			if !ok {
				dir = &Node{Name: part, IsDir: true}
				dirs[key] = dir
				parent.Children = append(parent.Children, dir)
			}
			parent = dir
		}
		parent.Children = append(parent.Children, &Node{Name: parts[len(parts)-1]})
	}

	sortChildren(root)
	return root
}

// sortChildren recursively sorts the children of a node alphabetically.
func sortChildren(node *Node) {
	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].Name < node.Children[j].Name
	})
	for _, child := range node.Children {
		if child.IsDir {
			sortChildren(child)
		}
	}
}

// printTree generates the string representation of the tree.
func printTree(root *Node) string {
	var builder strings.Builder
	builder.WriteString(root.Name)
	builder.WriteString("\n")
	printNode(&builder, root.Children, "")
	return builder.String()
}

func printNode(builder *strings.Builder, children []*Node, prefix string) {
	for i, node := range children {
		connector := "├── "
		newPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			newPrefix = prefix + "    "
		}

		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(node.Name)
		builder.WriteString("\n")

		if node.IsDir && len(node.Children) > 0 {
			printNode(builder, node.Children, newPrefix)
		}
	}
}
