// Package mcp exposes a runtime as Model Context Protocol tools and resources.
package mcp
