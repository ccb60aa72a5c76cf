// ikitsuke: location-anchored collaborative memory notes.
//
// Usage:
//
//	ikitsuke serve                      # MCP server (stdio transport)
//	ikitsuke http --addr :8080          # JSON HTTP API
//	ikitsuke seed --lat 35.68 --lng 139.76
//	ikitsuke export --format yaml > notes.yaml
//	ikitsuke import notes.yaml
package main

func main() {
	Execute()
}
